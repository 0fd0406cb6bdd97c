package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/form/formtest"
	"github.com/tbxark/formwizard/types"
)

func TestCompleteApplicationPassesEveryStep(t *testing.T) {
	for _, res := range All(formtest.Complete()) {
		assert.True(t, res.Valid, "step %s: %v", res.Step, res.Errors)
		assert.Empty(t, res.Errors)
	}
}

func TestDefaultsFailRequiredSteps(t *testing.T) {
	a := form.Defaults()
	assert.False(t, Step(a, types.StepIdentity).Valid)
	assert.False(t, Step(a, types.StepPreferences).Valid)
	assert.False(t, Step(a, types.StepHousehold).Valid)
	assert.False(t, Step(a, types.StepAgreements).Valid)
}

func TestValidationIsIdempotent(t *testing.T) {
	a := form.Defaults()
	a.Email = "a@b.com"
	for _, step := range types.Steps() {
		assert.Equal(t, Step(a, step), Step(a, step))
	}
}

func TestIdentityRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *form.Application)
		want   string
	}{
		{"blank after trim", func(a *form.Application) { a.City = "   " }, "City is required"},
		{"short zip", func(a *form.Application) { a.ZipCode = "802" }, "Zip code (must be at least 5 digits)"},
		{"phone digits", func(a *form.Application) { a.Phone = "555-0142 ext" }, "Phone number (must contain at least 10 digits)"},
		{"email shape", func(a *form.Application) { a.Email = "jane@x"; a.ConfirmEmail = "jane@x" }, "Email (must look like name@example.com)"},
		{"email case differs", func(a *form.Application) { a.ConfirmEmail = "Jane@x.com" }, MessageEmailsMustMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := formtest.Complete()
			tt.mutate(&a)
			res := Step(a, types.StepIdentity)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Errors, tt.want)
		})
	}
}

func TestMismatchedEmail(t *testing.T) {
	a := form.Defaults()
	a.Email = "a@b.com"
	a.ConfirmEmail = "a@c.com"
	res := Step(a, types.StepIdentity)
	require.False(t, res.Valid)

	count := 0
	for _, msg := range res.Errors {
		if msg == MessageEmailsMustMatch {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.NotContains(t, res.Errors, "Email (must look like name@example.com)")
}

func TestPreferenceRules(t *testing.T) {
	a := formtest.Complete()
	a.BreedChoices = []form.BreedChoice{{Priority: 1, Breed: " "}, {Priority: 2}}
	a.Sizes = []string{}
	a.DeliveryMethod = "teleport"
	res := Step(a, types.StepPreferences)
	assert.Len(t, res.Errors, 3)

	a = formtest.Complete()
	a.BreedChoices[0].Breed = ""
	a.BreedChoices[2].Breed = "Beagle"
	assert.True(t, Step(a, types.StepPreferences).Valid)

	a.ActivityLevel = ""
	assert.True(t, Step(a, types.StepPreferences).Valid, "activity level is optional")
}

func TestConditionalHouseholdRules(t *testing.T) {
	a := formtest.Complete()
	a.HasChildren = true
	res := Step(a, types.StepHousehold)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Children ages (required when children live in the home)"}, res.Errors)

	a.ChildrenAges = "4 and 9"
	assert.True(t, Step(a, types.StepHousehold).Valid)

	a.HasOtherPets = true
	assert.False(t, Step(a, types.StepHousehold).Valid)
	a.OtherPetsDetails = "an old cat"
	assert.True(t, Step(a, types.StepHousehold).Valid)

	a.HasFence = false
	res = Step(a, types.StepHousehold)
	assert.Equal(t, []string{"Exercise plan (required when the yard is not fenced)"}, res.Errors)
	a.ExercisePlan = "Two long walks a day"
	assert.True(t, Step(a, types.StepHousehold).Valid)
}

func TestChildrenAgesRuleIndependentOfOtherFields(t *testing.T) {
	a := form.Defaults()
	a.HasChildren = true
	assert.Contains(t, Step(a, types.StepHousehold).Errors, "Children ages (required when children live in the home)")
	a.ChildrenAges = "7"
	assert.NotContains(t, Step(a, types.StepHousehold).Errors, "Children ages (required when children live in the home)")
}

func TestOnlyAgreementIsBinding(t *testing.T) {
	a := form.Defaults()
	a.SpayNeuterAgreement = true
	a.NewsletterOptIn = false
	a.SMSOptIn = false
	assert.True(t, Step(a, types.StepAgreements).Valid)

	a.SpayNeuterAgreement = false
	a.NewsletterOptIn = true
	res := Step(a, types.StepAgreements)
	assert.False(t, res.Valid)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "/spayNeuterAgreement", res.Issues[0].JSONPointer)
}

func TestUnknownStep(t *testing.T) {
	res := Step(formtest.Complete(), types.Step(9))
	assert.False(t, res.Valid)
}

func TestFirstInvalid(t *testing.T) {
	step, ok := FirstInvalid(formtest.Through(3), types.LastStep+1)
	require.True(t, ok)
	assert.Equal(t, types.StepHousehold, step)

	_, ok = FirstInvalid(formtest.Through(3), types.StepHousehold)
	assert.False(t, ok)

	_, ok = FirstInvalid(formtest.Complete(), types.LastStep+1)
	assert.False(t, ok)
}
