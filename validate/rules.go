// Package validate holds the per-step rule sets of the adoption application.
// Every function here is pure: results are recomputed from the application
// each time and never cached.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

// Rule is one declarative check. Check reports whether the application
// satisfies the rule; Message is shown to the applicant when it does not.
type Rule struct {
	Pointer string
	Label   string
	Message string
	Check   func(a *form.Application) bool
}

const (
	minZipLength   = 5
	minPhoneDigits = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func required[V ~string](f form.Field[V]) Rule {
	return Rule{
		Pointer: f.Pointer(),
		Label:   f.Label,
		Message: f.Label + " is required",
		Check: func(a *form.Application) bool {
			return !blank(string(f.Get(a)))
		},
	}
}

// requiredWhen makes f required only while flag equals want.
func requiredWhen(f form.Field[string], flag form.Field[bool], want bool, message string) Rule {
	return Rule{
		Pointer: f.Pointer(),
		Label:   f.Label,
		Message: message,
		Check: func(a *form.Application) bool {
			if flag.Get(a) != want {
				return true
			}
			return !blank(f.Get(a))
		},
	}
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

var identityRules = []Rule{
	required(form.FirstName),
	required(form.LastName),
	required(form.Email),
	required(form.ConfirmEmail),
	required(form.Phone),
	required(form.Address),
	required(form.City),
	required(form.State),
	required(form.ZipCode),
	{
		Pointer: form.ZipCode.Pointer(),
		Label:   form.ZipCode.Label,
		Message: "Zip code (must be at least 5 digits)",
		Check: func(a *form.Application) bool {
			return len(strings.TrimSpace(a.ZipCode)) >= minZipLength
		},
	},
	{
		Pointer: form.Phone.Pointer(),
		Label:   form.Phone.Label,
		Message: "Phone number (must contain at least 10 digits)",
		Check: func(a *form.Application) bool {
			return digits(a.Phone) >= minPhoneDigits
		},
	},
	{
		Pointer: form.Email.Pointer(),
		Label:   form.Email.Label,
		Message: "Email (must look like name@example.com)",
		Check: func(a *form.Application) bool {
			return emailPattern.MatchString(strings.TrimSpace(a.Email))
		},
	},
	{
		Pointer: form.ConfirmEmail.Pointer(),
		Label:   form.ConfirmEmail.Label,
		Message: MessageEmailsMustMatch,
		Check: func(a *form.Application) bool {
			return a.ConfirmEmail == a.Email
		},
	},
}

// MessageEmailsMustMatch is reported when the confirmation email differs
// from the primary email.
const MessageEmailsMustMatch = "Emails must match"

var preferenceRules = []Rule{
	{
		Pointer: form.BreedChoices.Pointer(),
		Label:   form.BreedChoices.Label,
		Message: "Breed choices (select at least one breed)",
		Check: func(a *form.Application) bool {
			for _, c := range a.BreedChoices {
				if !blank(c.Breed) {
					return true
				}
			}
			return false
		},
	},
	{
		Pointer: form.Sizes.Pointer(),
		Label:   form.Sizes.Label,
		Message: "Sizes (select at least one size)",
		Check: func(a *form.Application) bool {
			for _, s := range a.Sizes {
				if !blank(s) {
					return true
				}
			}
			return false
		},
	},
	required(form.PreferredGender),
	required(form.PickupLocation),
	{
		Pointer: form.Delivery.Pointer(),
		Label:   form.Delivery.Label,
		Message: "Delivery method (choose pickup, delivery or flight-nanny)",
		Check: func(a *form.Application) bool {
			return a.DeliveryMethod.Known()
		},
	},
}

var householdRules = []Rule{
	required(form.HomeDescription),
	required(form.DailySchedule),
	required(form.WhyAdopt),
	requiredWhen(form.OtherPetsDetails, form.HasOtherPets, true, "Other pets details (required when you have other pets)"),
	requiredWhen(form.ChildrenAges, form.HasChildren, true, "Children ages (required when children live in the home)"),
	requiredWhen(form.ExercisePlan, form.HasFence, false, "Exercise plan (required when the yard is not fenced)"),
}

var agreementRules = []Rule{
	{
		Pointer: form.SpayNeuterAgreement.Pointer(),
		Label:   form.SpayNeuterAgreement.Label,
		Message: "Spay/neuter agreement must be accepted",
		Check: func(a *form.Application) bool {
			return a.SpayNeuterAgreement
		},
	},
}

// Rules returns the rule set for step, or nil for an unknown step.
func Rules(step types.Step) []Rule {
	switch step {
	case types.StepIdentity:
		return identityRules
	case types.StepPreferences:
		return preferenceRules
	case types.StepHousehold:
		return householdRules
	case types.StepAgreements:
		return agreementRules
	default:
		return nil
	}
}
