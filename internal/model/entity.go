package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawCount keeps a count exactly as the client sent it so rejected input can
// be echoed back. JSON numbers and strings are both accepted.
type RawCount string

func (c *RawCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = RawCount(strings.TrimSpace(s))
		return nil
	}
	*c = RawCount(b)
	return nil
}

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	Email  string `json:"email"`
	Center string `json:"center"`
	Area   string `json:"area"`
	Admin  bool   `json:"admin"`
}

type SubmitRequest struct {
	Date      string   `json:"date" form:"date"`
	Breakfast RawCount `json:"breakfast" form:"breakfast"`
	Lunch     RawCount `json:"lunch" form:"lunch"`
	Dinner    RawCount `json:"dinner" form:"dinner"`
}

type SubmitResponse struct {
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Code   string        `json:"code,omitempty"`
	Cutoff string        `json:"cutoff,omitempty"`
	Input  SubmitRequest `json:"input"`
	Report *Report       `json:"report,omitempty"`
}

type CellEditRequest struct {
	Center string `json:"center" binding:"required"`
	Date   string `json:"date" binding:"required,isodate"`
	Field  string `json:"field" binding:"required,oneof=breakfast lunch dinner"`
	Value  *int   `json:"value" binding:"required,min=0"`
}

type CellEditResponse struct {
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Report *Report `json:"report,omitempty"`
}

type LockRequest struct {
	LockUntil string `json:"lock_until" binding:"omitempty,isodate"`
}

type LockResponse struct {
	LockUntil  string `json:"lock_until"`
	UnlockFrom string `json:"unlock_from"`
}
