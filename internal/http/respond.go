package http

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"saasboard/internal/core"
	"saasboard/internal/metrics"
)

// metric carries one float value over JSON. NaN and the infinities are not
// representable in JSON, so they marshal as null and the client renders them
// as "not meaningful".
type metric float64

func (m metric) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

type kpiResponse struct {
	Month             string `json:"month"`
	Range             string `json:"range"`
	ARR               metric `json:"arr"`
	ARRGrowth         metric `json:"arr_growth"`
	NRR               metric `json:"nrr"`
	GRR               metric `json:"grr"`
	GrossMargin       metric `json:"gross_margin"`
	OpMargin          metric `json:"op_margin"`
	BurnMultiple      metric `json:"burn_multiple"`
	RunwayMonths      metric `json:"runway_months"`
	NetMonthlyBurn    metric `json:"net_monthly_burn"`
	EndingCashBalance metric `json:"ending_cash_balance"`
}

func newKpiResponse(k core.KpiSet, month core.MonthKey, selector core.RangeSelector) kpiResponse {
	return kpiResponse{
		Month:             month.String(),
		Range:             string(selector),
		ARR:               metric(k.ARR),
		ARRGrowth:         metric(k.ARRGrowth),
		NRR:               metric(k.NRR),
		GRR:               metric(k.GRR),
		GrossMargin:       metric(k.GrossMargin),
		OpMargin:          metric(k.OpMargin),
		BurnMultiple:      metric(k.BurnMultiple),
		RunwayMonths:      metric(k.RunwayMonths),
		NetMonthlyBurn:    metric(k.NetMonthlyBurn),
		EndingCashBalance: metric(k.EndingCashBalance),
	}
}

type bridgeStepResponse struct {
	Label string `json:"label"`
	Value metric `json:"value"`
	Kind  string `json:"kind"`
}

func newBridgeResponse(steps []core.BridgeStep) []bridgeStepResponse {
	out := make([]bridgeStepResponse, 0, len(steps))
	for _, st := range steps {
		out = append(out, bridgeStepResponse{
			Label: st.Label,
			Value: metric(st.Value),
			Kind:  string(st.Kind),
		})
	}
	return out
}

type logoMonthResponse struct {
	Month        string `json:"month"`
	NewLogos     int    `json:"new_logos"`
	ChurnedLogos int    `json:"churned_logos"`
}

func newLogoResponse(months []core.LogoMonth) []logoMonthResponse {
	out := make([]logoMonthResponse, 0, len(months))
	for _, lm := range months {
		out = append(out, logoMonthResponse{
			Month:        lm.Month.String(),
			NewLogos:     lm.NewLogos,
			ChurnedLogos: lm.ChurnedLogos,
		})
	}
	return out
}

type topRowResponse struct {
	MRR              metric `json:"mrr"`
	ARR              metric `json:"arr"`
	NewLogos         int    `json:"new_logos"`
	ChurnedLogos     int    `json:"churned_logos"`
	CACPaybackMonths metric `json:"cac_payback_months"`
}

func newTopRowResponse(tr metrics.TopRow) topRowResponse {
	return topRowResponse{
		MRR:              metric(tr.MRR),
		ARR:              metric(tr.ARR),
		NewLogos:         tr.NewLogos,
		ChurnedLogos:     tr.ChurnedLogos,
		CACPaybackMonths: metric(tr.CACPaybackMonths),
	}
}

type productResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Response encoding failed", "error", err, "url", r.URL.Path)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}
