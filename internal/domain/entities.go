package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Role is a user's permission level on the platform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleMember   Role = "member"
)

// User is an enrolled person or an operator account.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	InstitutionID string    `json:"institution_id"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) GetID() string    { return u.ID }
func (u *User) GetTitle() string { return u.Name }

func (u *User) GetDescription() string {
	return fmt.Sprintf("%s · %s", u.Email, u.Role)
}

func (u *User) GetStatus() string {
	if u.Active {
		return "active"
	}
	return "inactive"
}

func (u *User) Columns() []string {
	return []string{u.ID, u.Name, u.Email, string(u.Role), u.GetStatus()}
}

// Device is a palm scanner installed at an institution.
type Device struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Serial        string    `json:"serial"`
	Status        string    `json:"status"` // online, offline, maintenance
	InstitutionID string    `json:"institution_id"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

func (d *Device) GetID() string     { return d.ID }
func (d *Device) GetTitle() string  { return d.Name }
func (d *Device) GetStatus() string { return d.Status }

func (d *Device) GetDescription() string {
	return fmt.Sprintf("SN %s · seen %s", d.Serial, FormatTime(d.LastSeenAt))
}

func (d *Device) Columns() []string {
	return []string{d.ID, d.Name, d.Serial, d.Status, FormatTime(d.LastSeenAt)}
}

// Report is an incident or usage report filed by an operator.
type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"` // open, reviewing, closed
	SubmittedBy string    `json:"submitted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Report) GetID() string     { return r.ID }
func (r *Report) GetTitle() string  { return r.Title }
func (r *Report) GetStatus() string { return r.Status }

func (r *Report) GetDescription() string {
	return fmt.Sprintf("by %s · %s", r.SubmittedBy, FormatTime(r.CreatedAt))
}

func (r *Report) Columns() []string {
	return []string{r.ID, r.Title, r.Status, r.SubmittedBy, FormatTime(r.CreatedAt)}
}

// Verification is one palm match attempt at a device.
type Verification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	DeviceID   string    `json:"device_id"`
	Result     string    `json:"result"` // matched, rejected
	Score      float64   `json:"score"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (v *Verification) GetID() string     { return v.ID }
func (v *Verification) GetStatus() string { return v.Result }

func (v *Verification) GetTitle() string {
	if v.UserName != "" {
		return v.UserName
	}
	return v.UserID
}

func (v *Verification) GetDescription() string {
	return fmt.Sprintf("device %s · score %.2f", v.DeviceID, v.Score)
}

func (v *Verification) Columns() []string {
	return []string{v.ID, v.GetTitle(), v.DeviceID, v.Result, strconv.FormatFloat(v.Score, 'f', 2, 64), FormatTime(v.VerifiedAt)}
}

// HistoryEntry is an audit record of an action taken on the platform.
type HistoryEntry struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Action   string    `json:"action"`
	DeviceID string    `json:"device_id"`
	At       time.Time `json:"at"`
}

func (h *HistoryEntry) GetID() string     { return h.ID }
func (h *HistoryEntry) GetTitle() string  { return h.Action }
func (h *HistoryEntry) GetStatus() string { return "" }

func (h *HistoryEntry) GetDescription() string {
	return fmt.Sprintf("user %s · %s", h.UserID, FormatTime(h.At))
}

func (h *HistoryEntry) Columns() []string {
	return []string{h.ID, h.Action, h.UserID, h.DeviceID, FormatTime(h.At)}
}

// Hand identifies which palm an enrollment belongs to.
type Hand string

const (
	HandLeft  Hand = "left"
	HandRight Hand = "right"
)

// Palmprint is an enrolled palm template.
type Palmprint struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Hand       Hand      `json:"hand"`
	Quality    int       `json:"quality"` // 0-100
	Status     string    `json:"status"`  // enrolled, revoked
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (p *Palmprint) GetID() string     { return p.ID }
func (p *Palmprint) GetStatus() string { return p.Status }

func (p *Palmprint) GetTitle() string {
	return fmt.Sprintf("%s hand of %s", p.Hand, p.UserID)
}

func (p *Palmprint) GetDescription() string {
	return fmt.Sprintf("quality %d · %s", p.Quality, FormatTime(p.EnrolledAt))
}

func (p *Palmprint) Columns() []string {
	return []string{p.ID, p.UserID, string(p.Hand), strconv.Itoa(p.Quality), p.Status}
}

// Institution is a customer organisation operating devices.
type Institution struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

func (i *Institution) GetID() string          { return i.ID }
func (i *Institution) GetTitle() string       { return i.Name }
func (i *Institution) GetDescription() string { return i.Code }

func (i *Institution) GetStatus() string {
	if i.Active {
		return "active"
	}
	return "inactive"
}

func (i *Institution) Columns() []string {
	return []string{i.ID, i.Name, i.Code, i.GetStatus()}
}

// Payment is an invoice settlement by an institution.
// Amount is in minor units of Currency.
type Payment struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"` // pending, paid, failed
	PaidAt        time.Time `json:"paid_at"`
}

func (p *Payment) GetID() string     { return p.ID }
func (p *Payment) GetStatus() string { return p.Status }

func (p *Payment) GetTitle() string {
	return FormatAmount(p.Amount, p.Currency)
}

func (p *Payment) GetDescription() string {
	return fmt.Sprintf("institution %s · %s", p.InstitutionID, FormatTime(p.PaidAt))
}

func (p *Payment) Columns() []string {
	return []string{p.ID, p.InstitutionID, FormatAmount(p.Amount, p.Currency), p.Status, FormatTime(p.PaidAt)}
}

// FormatTime renders t for list rows; the zero time renders as "-".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatAmount renders minor units with two decimals, e.g. 12345 EUR -> "123.45 EUR".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	s := fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
	if currency != "" {
		s += " " + currency
	}
	return s
}
