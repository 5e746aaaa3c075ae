package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar day on the wire. It marshals as DateLayout and
// accepts DateLayout or RFC 3339 on input; the clock part is dropped.
type Date time.Time

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		rfc, rerr := time.Parse(time.RFC3339, s)
		if rerr != nil {
			return fmt.Errorf("date %q: use %s", s, DateLayout)
		}
		t = time.Date(rfc.Year(), rfc.Month(), rfc.Day(), 0, 0, 0, 0, time.UTC)
	}
	*d = Date(t)
	return nil
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

func timePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	return &t
}

func (s Student) MarshalJSON() ([]byte, error) {
	type plain Student
	return json.Marshal(struct {
		plain
		BirthDate *Date `json:"birth_date,omitempty"`
	}{plain(s), datePtr(s.BirthDate)})
}

// UnmarshalJSON rejects unknown fields; Student is accepted as a request body.
func (s *Student) UnmarshalJSON(data []byte) error {
	type plain Student
	aux := struct {
		*plain
		BirthDate *Date `json:"birth_date,omitempty"`
	}{plain: (*plain)(s)}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	s.BirthDate = timePtr(aux.BirthDate)
	return nil
}

func (e DutyEntry) MarshalJSON() ([]byte, error) {
	type plain DutyEntry
	return json.Marshal(struct {
		plain
		DutyDate Date `json:"duty_date"`
	}{plain(e), Date(e.DutyDate)})
}

func (e *DutyEntry) UnmarshalJSON(data []byte) error {
	type plain DutyEntry
	aux := struct {
		*plain
		DutyDate Date `json:"duty_date"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.DutyDate = time.Time(aux.DutyDate)
	return nil
}

func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		ReportDate Date `json:"report_date"`
	}{plain(r), Date(r.ReportDate)})
}

func (r *Report) UnmarshalJSON(data []byte) error {
	type plain Report
	aux := struct {
		*plain
		ReportDate Date `json:"report_date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ReportDate = time.Time(aux.ReportDate)
	return nil
}
