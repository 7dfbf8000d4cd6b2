package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidOrExpiredOTP = "INVALID_OR_EXPIRED_OTP"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidRole         = "INVALID_ROLE"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeDuplicateUser       = "DUPLICATE_USER"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnavailable         = "UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewValidationError は必須項目の不足・不正な入力のエラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が不正です: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidCredentialsError は認証失敗のエラーを生成する。
// ユーザー名の存在有無を推測できないよう、原因を区別しない固定メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidOrExpiredOTPError はワンタイムパスコードの検証失敗エラーを生成する。
// 未発行・期限切れ・コード不一致を区別しない。
func NewInvalidOrExpiredOTPError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOrExpiredOTP,
		Message:  "ワンタイムパスコードが無効か、有効期限が切れています。",
		Category: "auth",
		Action:   "パスコードを再発行して再度お試しください。",
	}
}

// NewUnauthorizedError は未認証リクエストのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidRoleError はアカウントに不正なロールが設定されている場合のエラーを生成する。
func NewInvalidRoleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  "このアカウントには有効なロールが設定されていません。",
		Category: "auth",
		Action:   "管理者にお問い合わせください。",
	}
}

// NewForbiddenError は権限不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "管理者権限のあるアカウントでログインしてください。",
	}
}

// NewSelfDeleteForbiddenError は自アカウント削除の拒否エラーを生成する。
func NewSelfDeleteForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "自分自身のアカウントは削除できません。",
		Category: "user",
		Action:   "別の管理者アカウントから操作してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateUserError はユーザー名の重複エラーを生成する。
func NewDuplicateUserError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  fmt.Sprintf("このユーザー名は既に使用されています: %s", username),
		Category: "user",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnavailableError はデータストアが利用できない場合のエラーを生成する。
func NewUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUnavailable,
		Message:  "データストアが利用できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
