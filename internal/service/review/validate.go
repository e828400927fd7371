package review

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minNotesStrict  = 20
	minNotesLenient = 5
	minComments     = 5
)

func newValidator(cfg Config) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	codeHosts := hostSet(cfg.AllowedCodeHosts)
	videoHosts := hostSet(cfg.AllowedVideoHosts)
	minNotes := minNotesStrict
	if cfg.LenientNotes {
		minNotes = minNotesLenient
	}

	_ = v.RegisterValidation("codehost", func(fl validator.FieldLevel) bool {
		return hostAllowed(fl.Field().String(), codeHosts)
	})
	_ = v.RegisterValidation("videohost", func(fl validator.FieldLevel) bool {
		return hostAllowed(fl.Field().String(), videoHosts)
	})
	_ = v.RegisterValidation("notes", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minNotes
	})
	_ = v.RegisterValidation("comments", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minComments
	})

	return v
}

func hostSet(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		out[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return out
}

func hostAllowed(raw string, allowed map[string]struct{}) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	_, ok := allowed[strings.ToLower(u.Hostname())]
	return ok
}

func (s *reviewService) minNotes() int {
	if s.cfg.LenientNotes {
		return minNotesLenient
	}
	return minNotesStrict
}

// normalizeProof trims every free-text field in place.
func normalizeProof(in *ProofInput) {
	in.GithubLink = strings.TrimSpace(in.GithubLink)
	in.DemoVideoLink = strings.TrimSpace(in.DemoVideoLink)
	in.CompletionNotes = strings.TrimSpace(in.CompletionNotes)
	for i, a := range in.Attachments {
		in.Attachments[i] = strings.TrimSpace(a)
	}
}

func normalizeReview(req *ReviewRequest) {
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	req.Comments = strings.TrimSpace(req.Comments)
	req.DefectDescription = strings.TrimSpace(req.DefectDescription)
	req.DefectSeverity = strings.ToLower(strings.TrimSpace(req.DefectSeverity))
}

func (s *reviewService) validateProof(in *ProofInput) error {
	normalizeProof(in)
	return s.translate(s.validate.Struct(in))
}

func (s *reviewService) validateReview(req *ReviewRequest) error {
	normalizeReview(req)
	return s.translate(s.validate.Struct(req))
}

// translate converts validator output into ValidationErrors.
func (s *reviewService) translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, s.describe(fe))
	}
	return out
}

func (s *reviewService) describe(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	ve := &ValidationError{Field: field, Rule: fe.Tag()}

	switch fe.Tag() {
	case "required":
		ve.Message = field + " is required"
	case "required_if":
		ve.Message = field + " is required when decision is defect_found"
	case "codehost":
		ve.Rule = "allowed_host"
		ve.Message = fmt.Sprintf("%s must be an http(s) URL on one of: %s", field, strings.Join(s.cfg.AllowedCodeHosts, ", "))
	case "videohost":
		ve.Rule = "allowed_host"
		ve.Message = fmt.Sprintf("%s must be an http(s) URL on one of: %s", field, strings.Join(s.cfg.AllowedVideoHosts, ", "))
	case "notes":
		ve.Rule = "min_length"
		ve.Message = fmt.Sprintf("%s must be at least %d characters", field, s.minNotes())
	case "comments":
		ve.Rule = "min_length"
		ve.Message = fmt.Sprintf("%s must be at least %d characters", field, minComments)
	case "oneof":
		ve.Message = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		if fe.Kind() == reflect.Slice {
			ve.Message = fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		} else {
			ve.Message = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
	default:
		ve.Message = fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
	return ve
}
