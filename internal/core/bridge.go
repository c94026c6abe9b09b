package core

// BuildArrBridge decomposes the ARR change between prevMonth and currMonth
// into an ordered waterfall. All values are annualized. The absolute start
// plus the signed relative steps equals the total end, mirroring the flow
// conservation identity. An empty revenue window yields an empty bridge.
func BuildArrBridge(revenue []RevenueRecord, currMonth, prevMonth MonthKey) []BridgeStep {
	if len(revenue) == 0 {
		return nil
	}

	t := ClassifyFlows(BuildFlows(revenue, prevMonth, currMonth))

	return []BridgeStep{
		{Label: "Starting ARR", Value: t.StartingMRR * 12, Kind: StepAbsolute},
		{Label: "New", Value: t.New * 12, Kind: StepRelative},
		{Label: "Expansion", Value: t.Expansion * 12, Kind: StepRelative},
		{Label: "Contraction", Value: -t.Contraction * 12, Kind: StepRelative},
		{Label: "Churn", Value: -t.Churn * 12, Kind: StepRelative},
		{Label: "Ending ARR", Value: t.EndingMRR * 12, Kind: StepTotal},
	}
}
