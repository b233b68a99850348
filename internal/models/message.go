// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus tracks delivery of a contact form submission.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// ContactMessage is a submission of the public contact form. It is stored
// before delivery so that failed sends are not lost.
type ContactMessage struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	Subject     string        `json:"subject"`
	Message     string        `json:"message"`
	InquiryType string        `json:"inquiry_type"`
	Grade       string        `json:"grade,omitempty"`
	Status      MessageStatus `json:"status"`
	LastError   *string       `json:"last_error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	SentAt      *time.Time    `json:"sent_at,omitempty"`
}

// Option is a value/label pair for a form select.
type Option struct {
	Value string
	Label string
}

// InquiryTypes are the accepted contact form inquiry types. The first is the default.
var InquiryTypes = []Option{
	{"general", "General Inquiry"},
	{"admissions", "Admissions"},
	{"academic", "Academic Questions"},
	{"financial", "Financial Aid"},
	{"visit", "Schedule a Visit"},
}

// GradeLevels are the accepted student grade levels. Empty means not given.
var GradeLevels = []Option{
	{"preschool", "Preschool"},
	{"kindergarten", "Kindergarten"},
	{"1-5", "Elementary School (Grades 1-5)"},
	{"6-8", "Middle School (Grades 6-8)"},
	{"9-12", "High School (Grades 9-12)"},
	{"not-applicable", "Not Applicable"},
}

// OptionValues lists the values of opts, for validation rules.
func OptionValues(opts []Option) []interface{} {
	out := make([]interface{}, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// OptionLabel returns the label of value, or value itself when unknown.
func OptionLabel(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
