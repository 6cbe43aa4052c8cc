package applicants

// ApplicantResponse is the outward-facing representation of an applicant.
type ApplicantResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Notes       string `json:"notes,omitempty"`
	CVFileName  string `json:"cvFileName,omitempty"`
	CVURL       string `json:"cvUrl,omitempty"`
	Status      Status `json:"status"`
	StatusLabel string `json:"statusLabel"`
	SubmittedAt int64  `json:"submittedAt"`
	SyncState   string `json:"syncState,omitempty"`
	SyncError   string `json:"syncError,omitempty"`
}

// StatsResponse carries the dashboard chart data.
type StatsResponse struct {
	Total    int                   `json:"total"`
	Hired    int                   `json:"hired"`
	ByStatus []StatusCountResponse `json:"byStatus"`
}

type StatusCountResponse struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

type PendingDeletionResponse struct {
	Applicant ApplicantResponse `json:"applicant"`
	Error     string            `json:"error"`
	Since     int64             `json:"since"`
}

// SyncResponse lists the board's unconfirmed work.
type SyncResponse struct {
	Unsynced         []ApplicantResponse       `json:"unsynced"`
	PendingDeletions []PendingDeletionResponse `json:"pendingDeletions"`
	Resolved         int                       `json:"resolved"`
}

func toResponse(a Applicant, label func(string) string) ApplicantResponse {
	return ApplicantResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Phone:       a.Phone,
		Position:    a.Position,
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		Notes:       a.Notes,
		CVFileName:  a.CVFileName,
		CVURL:       a.CVURL,
		Status:      a.Status,
		StatusLabel: label(string(a.Status)),
		SubmittedAt: a.CreatedAt.UnixMilli(),
	}
}

func toViewResponse(v View, label func(string) string) ApplicantResponse {
	resp := toResponse(v.Applicant, label)
	resp.SyncState = string(v.Sync)
	resp.SyncError = v.SyncError
	return resp
}

func toStatsResponse(s Stats) StatsResponse {
	resp := StatsResponse{Total: s.Total, Hired: s.Hired, ByStatus: make([]StatusCountResponse, 0, len(s.ByStatus))}
	for _, c := range s.ByStatus {
		resp.ByStatus = append(resp.ByStatus, StatusCountResponse{Status: c.Status, Label: c.Label, Count: c.Count})
	}
	return resp
}

func toSyncResponse(r SyncReport, label func(string) string) SyncResponse {
	resp := SyncResponse{
		Unsynced:         make([]ApplicantResponse, 0, len(r.Unsynced)),
		PendingDeletions: make([]PendingDeletionResponse, 0, len(r.PendingDeletions)),
		Resolved:         r.Resolved,
	}
	for _, v := range r.Unsynced {
		resp.Unsynced = append(resp.Unsynced, toViewResponse(v, label))
	}
	for _, d := range r.PendingDeletions {
		resp.PendingDeletions = append(resp.PendingDeletions, PendingDeletionResponse{
			Applicant: toResponse(d.Applicant, label),
			Error:     d.Error,
			Since:     d.Since.UnixMilli(),
		})
	}
	return resp
}
