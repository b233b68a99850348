package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"schoolsite/internal/models"
)

// Validation limits for contact form fields.
const (
	maxNameLen    = 100
	maxPhoneLen   = 30
	maxSubjectLen = 200
	minMessageLen = 10
	maxMessageLen = 5_000
)

var phonePattern = regexp.MustCompile(`^[0-9+()\-.\s]{7,}$`)

// contactForm is the submitted contact form. The json tags name the
// fields in validation errors and match the form input names.
type contactForm struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiry_type"`
	Grade       string `json:"grade"`
}

// parseContactForm reads and trims the form fields of r.
func parseContactForm(r *http.Request) contactForm {
	f := contactForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Phone:       strings.TrimSpace(r.FormValue("phone")),
		Subject:     strings.TrimSpace(r.FormValue("subject")),
		Message:     strings.TrimSpace(r.FormValue("message")),
		InquiryType: strings.TrimSpace(r.FormValue("inquiry_type")),
		Grade:       strings.TrimSpace(r.FormValue("grade")),
	}
	if f.InquiryType == "" {
		f.InquiryType = models.InquiryTypes[0].Value
	}
	return f
}

// Validate checks the form. A failure is a validation.Errors keyed by
// input name.
func (f *contactForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name,
			validation.Required.Error("Name is required"),
			validation.RuneLength(0, maxNameLen).Error("Name is too long"),
		),
		validation.Field(&f.Email,
			validation.Required.Error("Email is required"),
			is.EmailFormat.Error("Email is invalid"),
		),
		validation.Field(&f.Phone,
			validation.RuneLength(0, maxPhoneLen).Error("Phone number is too long"),
			validation.Match(phonePattern).Error("Phone number is invalid"),
		),
		validation.Field(&f.Subject,
			validation.Required.Error("Subject is required"),
			validation.RuneLength(0, maxSubjectLen).Error("Subject is too long"),
		),
		validation.Field(&f.Message,
			validation.Required.Error("Message is required"),
			validation.RuneLength(minMessageLen, maxMessageLen).Error("Message must be at least 10 characters"),
		),
		validation.Field(&f.InquiryType,
			validation.Required.Error("Please choose an inquiry type"),
			validation.In(models.OptionValues(models.InquiryTypes)...).Error("Please choose an inquiry type"),
		),
		validation.Field(&f.Grade,
			validation.In(models.OptionValues(models.GradeLevels)...).Error("Please choose a grade level"),
		),
	)
}

// message converts a valid form into a contact message.
func (f contactForm) message() models.ContactMessage {
	return models.ContactMessage{
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Subject:     f.Subject,
		Message:     f.Message,
		InquiryType: f.InquiryType,
		Grade:       f.Grade,
	}
}

// fieldErrors flattens validation errors into messages per input name.
// Errors that are not validation errors yield nil.
func fieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, e := range verrs {
		out[field] = e.Error()
	}
	return out
}
