// Package form defines the adoption application record that every wizard step
// reads and writes, together with its defaults and typed field keys.
package form

type DeliveryMethod string

const (
	DeliveryUnset       DeliveryMethod = ""
	DeliveryPickup      DeliveryMethod = "pickup"
	DeliveryHome        DeliveryMethod = "delivery"
	DeliveryFlightNanny DeliveryMethod = "flight-nanny"
)

func DeliveryMethods() []DeliveryMethod {
	return []DeliveryMethod{DeliveryPickup, DeliveryHome, DeliveryFlightNanny}
}

func (d DeliveryMethod) Known() bool {
	for _, m := range DeliveryMethods() {
		if d == m {
			return true
		}
	}
	return false
}

// BreedChoice is one slot of the prioritized breed list. Priority 1 is the
// applicant's first choice.
type BreedChoice struct {
	Priority int    `json:"priority" jsonschema:"description=Rank of this choice where 1 is the first choice"`
	Breed    string `json:"breed" jsonschema:"description=Breed name or empty when the slot is unused"`
}

const breedSlots = 3

// Application is the flat record of every field across every step. Fields
// that belong to different steps live side by side so rules can reach across
// step boundaries.
type Application struct {
	// Identity
	FirstName    string `json:"firstName" jsonschema:"description=Applicant first name"`
	LastName     string `json:"lastName" jsonschema:"description=Applicant last name"`
	Email        string `json:"email" jsonschema:"description=Contact email address"`
	ConfirmEmail string `json:"confirmEmail" jsonschema:"description=Contact email typed a second time"`
	Phone        string `json:"phone" jsonschema:"description=Phone number with at least ten digits"`
	Address      string `json:"address" jsonschema:"description=Street address"`
	City         string `json:"city" jsonschema:"description=City"`
	State        string `json:"state" jsonschema:"description=State or province"`
	ZipCode      string `json:"zipCode" jsonschema:"description=Zip code with at least five characters"`

	// Preferences
	BreedChoices    []BreedChoice  `json:"breedChoices" jsonschema:"description=Prioritized breed choices"`
	Sizes           []string       `json:"sizes" jsonschema:"description=Acceptable adult sizes"`
	PreferredGender string         `json:"preferredGender" jsonschema:"description=Preferred puppy gender (male/female/either)"`
	ActivityLevel   string         `json:"activityLevel" jsonschema:"description=Household activity level (low/moderate/high)"`
	PickupLocation  string         `json:"pickupLocation" jsonschema:"description=Closest pickup location"`
	DeliveryMethod  DeliveryMethod `json:"deliveryMethod" jsonschema:"enum=pickup,enum=delivery,enum=flight-nanny,description=How the puppy gets home"`

	// Household
	HomeDescription  string `json:"homeDescription" jsonschema:"description=Description of the home"`
	DailySchedule    string `json:"dailySchedule" jsonschema:"description=Typical daily schedule"`
	WhyAdopt         string `json:"whyAdopt" jsonschema:"description=Why the applicant wants to adopt"`
	HasOtherPets     bool   `json:"hasOtherPets" jsonschema:"description=Whether other pets live in the home"`
	OtherPetsDetails string `json:"otherPetsDetails" jsonschema:"description=Species and ages of the other pets"`
	HasChildren      bool   `json:"hasChildren" jsonschema:"description=Whether children live in the home"`
	ChildrenAges     string `json:"childrenAges" jsonschema:"description=Ages of the children"`
	HasFence         bool   `json:"hasFence" jsonschema:"description=Whether the yard is fenced"`
	ExercisePlan     string `json:"exercisePlan" jsonschema:"description=Exercise plan when there is no fence"`
	PreviousPuppies  int    `json:"previousPuppies" jsonschema:"minimum=0,description=Number of puppies raised before"`
	Veterinarian     string `json:"veterinarian" jsonschema:"description=Current veterinarian (optional)"`

	// Agreements
	SpayNeuterAgreement bool `json:"spayNeuterAgreement" jsonschema:"description=Binding spay/neuter agreement"`
	NewsletterOptIn     bool `json:"newsletterOptIn" jsonschema:"description=Informational newsletter opt-in"`
	SMSOptIn            bool `json:"smsOptIn" jsonschema:"description=Informational text message opt-in"`
}

// Defaults returns an application with every field set to its typed default.
func Defaults() Application {
	return Application{
		BreedChoices: defaultBreedChoices(),
		Sizes:        []string{},
	}
}

func defaultBreedChoices() []BreedChoice {
	choices := make([]BreedChoice, breedSlots)
	for i := range choices {
		choices[i].Priority = i + 1
	}
	return choices
}

// Clone returns a deep copy.
func (a Application) Clone() Application {
	out := a
	out.BreedChoices = append([]BreedChoice(nil), a.BreedChoices...)
	out.Sizes = append([]string(nil), a.Sizes...)
	out.Normalize()
	return out
}

// Normalize restores the slice shapes after decoding or patching.
func (a *Application) Normalize() {
	if len(a.BreedChoices) > breedSlots {
		a.BreedChoices = a.BreedChoices[:breedSlots]
	}
	for i := len(a.BreedChoices); i < breedSlots; i++ {
		a.BreedChoices = append(a.BreedChoices, BreedChoice{Priority: i + 1})
	}
	if a.Sizes == nil {
		a.Sizes = []string{}
	}
	if a.PreviousPuppies < 0 {
		a.PreviousPuppies = 0
	}
}
