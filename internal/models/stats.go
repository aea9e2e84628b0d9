package models

// Stats summarizes the store for the /stats endpoint
type Stats struct {
	Articles            int `json:"articles"`
	Comments            int `json:"comments"`
	VisibleComments     int `json:"visible_comments"`
	QuarantinedComments int `json:"quarantined_comments"`
}
