package applicants

// StatusCount is one bar of the dashboard chart.
type StatusCount struct {
	Status Status
	Label  string
	Count  int
}

// Stats summarizes the board for the dashboard.
type Stats struct {
	Total    int
	Hired    int
	ByStatus []StatusCount
}

// ComputeStats counts applicants per status in board order. label maps a
// status to its display name; nil keeps the raw status.
func ComputeStats(list []Applicant, label func(string) string) Stats {
	counts := make(map[Status]int, len(Statuses))
	for _, a := range list {
		counts[a.Status]++
	}

	stats := Stats{Total: len(list), Hired: counts[StatusHired]}
	for _, s := range Statuses {
		name := string(s)
		if label != nil {
			name = label(name)
		}
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: s, Label: name, Count: counts[s]})
	}
	return stats
}
