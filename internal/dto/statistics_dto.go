package dto

// ReviewerStatisticsResponse aggregates a reviewer's workload and track
// record. All values are derived from current review rows, never stored.
type ReviewerStatisticsResponse struct {
	ReviewerID            uint    `json:"reviewer_id"`
	TotalReviews          int     `json:"total_reviews"`
	CompletedReviews      int     `json:"completed_reviews"`
	PendingReviews        int     `json:"pending_reviews"`
	OverdueReviews        int     `json:"overdue_reviews"`
	AverageTurnaroundDays float64 `json:"average_turnaround_days"`
	AverageScore          float64 `json:"average_score"`
	AcceptanceRate        float64 `json:"acceptance_rate"`
}
