// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetrics は認証フローのメトリクス収集インターフェース。
type AuthMetrics interface {
	RecordLogin(success bool)
	RecordOTPIssued()
	RecordOTPVerified(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginTotal  *prometheus.CounterVec
	otpIssued   prometheus.Counter
	otpVerified *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "パスワードログイン試行の合計数（結果別）",
		}, []string{"result"}),
		otpIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_otp_issued_total",
			Help: "発行されたワンタイムパスコードの合計数",
		}),
		otpVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_otp_verified_total",
			Help: "ワンタイムパスコード検証の合計数（結果別）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.loginTotal,
		c.otpIssued,
		c.otpVerified,
	)

	return c
}

// RecordLogin はパスワードログインの試行結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	c.loginTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordOTPIssued はワンタイムパスコードの発行を記録する。
func (c *Collector) RecordOTPIssued() {
	c.otpIssued.Inc()
}

// RecordOTPVerified はワンタイムパスコードの検証結果を記録する。
func (c *Collector) RecordOTPVerified(success bool) {
	c.otpVerified.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Nop は何も記録しないAuthMetrics実装。テストで使用する。
type Nop struct{}

// RecordLogin は何もしない。
func (Nop) RecordLogin(bool) {}

// RecordOTPIssued は何もしない。
func (Nop) RecordOTPIssued() {}

// RecordOTPVerified は何もしない。
func (Nop) RecordOTPVerified(bool) {}

// compile-time interface checks
var _ AuthMetrics = (*Collector)(nil)
var _ AuthMetrics = Nop{}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
