package models

import "time"

// MemberSummary — строка списка участников для административной панели.
type MemberSummary struct {
	UID              string     `json:"uid"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	MemberExpiryDate *time.Time `json:"member_expiry_date"`
	Status           string     `json:"status"` // active или expired
}
