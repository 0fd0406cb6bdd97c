// Package formtest provides ready-made applications for tests and examples.
package formtest

import "github.com/tbxark/formwizard/form"

// Complete returns an application that passes every step.
func Complete() form.Application {
	a := form.Defaults()
	a.FirstName = "Jane"
	a.LastName = "Doe"
	a.Email = "jane@x.com"
	a.ConfirmEmail = "jane@x.com"
	a.Phone = "(303) 555-0142"
	a.Address = "1 Main St"
	a.City = "Denver"
	a.State = "CO"
	a.ZipCode = "80202"

	a.BreedChoices[0].Breed = "Golden Retriever"
	a.Sizes = []string{"medium"}
	a.PreferredGender = "female"
	a.ActivityLevel = "moderate"
	a.PickupLocation = "denver"
	a.DeliveryMethod = form.DeliveryPickup

	a.HomeDescription = "Single family house with a yard"
	a.DailySchedule = "Home office, walks morning and evening"
	a.WhyAdopt = "Our last dog passed and we miss the company"
	a.HasFence = true

	a.SpayNeuterAgreement = true
	return a
}

// Through returns an application whose steps before upTo are valid and
// whose remaining steps are still at their defaults.
func Through(upTo int) form.Application {
	full := Complete()
	a := form.Defaults()
	if upTo > 1 {
		a.FirstName, a.LastName = full.FirstName, full.LastName
		a.Email, a.ConfirmEmail = full.Email, full.ConfirmEmail
		a.Phone, a.Address, a.City, a.State, a.ZipCode = full.Phone, full.Address, full.City, full.State, full.ZipCode
	}
	if upTo > 2 {
		a.BreedChoices = full.BreedChoices
		a.Sizes = full.Sizes
		a.PreferredGender, a.ActivityLevel = full.PreferredGender, full.ActivityLevel
		a.PickupLocation, a.DeliveryMethod = full.PickupLocation, full.DeliveryMethod
	}
	if upTo > 3 {
		a.HomeDescription, a.DailySchedule, a.WhyAdopt = full.HomeDescription, full.DailySchedule, full.WhyAdopt
		a.HasFence = full.HasFence
	}
	return a
}
