// Package model defines the user record and draft shared by client and server.
package model

import "strconv"

// User is a single address-book record as returned by the backend.
type User struct {
	ID           int64  `json:"id"` // server-assigned, immutable
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Address      string `json:"address"`
	Location     string `json:"location"`
	Municipality string `json:"municipality"`
	Province     string `json:"province"`
	Email        string `json:"email"`
	Notes        string `json:"notes"`
}

// UserDraft is the editable part of a User submitted on create and update.
type UserDraft struct {
	Name         string `json:"name" validate:"required,min=2,max=20"`
	Surname      string `json:"surname" validate:"required,min=2,max=20"`
	Address      string `json:"address" validate:"omitempty,min=5,max=75"`
	Location     string `json:"location" validate:"omitempty,min=3,max=25"`
	Municipality string `json:"municipality" validate:"omitempty,min=3,max=25"`
	Province     string `json:"province"`
	Email        string `json:"email" validate:"required,email"`
	Notes        string `json:"notes" validate:"max=300"`
}

// Draft returns the editable fields of u.
func (u User) Draft() UserDraft {
	return UserDraft{
		Name:         u.Name,
		Surname:      u.Surname,
		Address:      u.Address,
		Location:     u.Location,
		Municipality: u.Municipality,
		Province:     u.Province,
		Email:        u.Email,
		Notes:        u.Notes,
	}
}

// WithID builds the record the server stores for d under id.
func (d UserDraft) WithID(id int64) User {
	return User{
		ID:           id,
		Name:         d.Name,
		Surname:      d.Surname,
		Address:      d.Address,
		Location:     d.Location,
		Municipality: d.Municipality,
		Province:     d.Province,
		Email:        d.Email,
		Notes:        d.Notes,
	}
}

// Key is the id rendered as a highlight token.
func (u User) Key() string { return strconv.FormatInt(u.ID, 10) }
