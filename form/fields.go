package form

import "github.com/tbxark/formwizard/types"

type Kind string

const (
	KindString     Kind = "string"
	KindBool       Kind = "bool"
	KindInt        Kind = "int"
	KindEnum       Kind = "enum"
	KindStringList Kind = "string_list"
	KindBreedList  Kind = "breed_list"
)

// Info describes one registered field.
type Info struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Step  types.Step `json:"step"`
	Kind  Kind       `json:"kind"`
}

func (i Info) Pointer() string {
	return "/" + i.Key
}

// Field is a typed key into Application. Updates through a Field can only
// carry a value of the field's own type.
type Field[V any] struct {
	Info
	ref func(*Application) *V
}

func newField[V any](key, label string, step types.Step, kind Kind, ref func(*Application) *V) Field[V] {
	return Field[V]{
		Info: Info{Key: key, Label: label, Step: step, Kind: kind},
		ref:  ref,
	}
}

func (f Field[V]) Get(a *Application) V {
	return *f.ref(a)
}

func (f Field[V]) Set(a *Application, v V) {
	*f.ref(a) = v
}

var (
	FirstName    = newField("firstName", "First name", types.StepIdentity, KindString, func(a *Application) *string { return &a.FirstName })
	LastName     = newField("lastName", "Last name", types.StepIdentity, KindString, func(a *Application) *string { return &a.LastName })
	Email        = newField("email", "Email", types.StepIdentity, KindString, func(a *Application) *string { return &a.Email })
	ConfirmEmail = newField("confirmEmail", "Confirm email", types.StepIdentity, KindString, func(a *Application) *string { return &a.ConfirmEmail })
	Phone        = newField("phone", "Phone number", types.StepIdentity, KindString, func(a *Application) *string { return &a.Phone })
	Address      = newField("address", "Street address", types.StepIdentity, KindString, func(a *Application) *string { return &a.Address })
	City         = newField("city", "City", types.StepIdentity, KindString, func(a *Application) *string { return &a.City })
	State        = newField("state", "State", types.StepIdentity, KindString, func(a *Application) *string { return &a.State })
	ZipCode      = newField("zipCode", "Zip code", types.StepIdentity, KindString, func(a *Application) *string { return &a.ZipCode })

	BreedChoices    = newField("breedChoices", "Breed choices", types.StepPreferences, KindBreedList, func(a *Application) *[]BreedChoice { return &a.BreedChoices })
	Sizes           = newField("sizes", "Sizes", types.StepPreferences, KindStringList, func(a *Application) *[]string { return &a.Sizes })
	PreferredGender = newField("preferredGender", "Preferred gender", types.StepPreferences, KindString, func(a *Application) *string { return &a.PreferredGender })
	ActivityLevel   = newField("activityLevel", "Activity level", types.StepPreferences, KindString, func(a *Application) *string { return &a.ActivityLevel })
	PickupLocation  = newField("pickupLocation", "Pickup location", types.StepPreferences, KindString, func(a *Application) *string { return &a.PickupLocation })
	Delivery        = newField("deliveryMethod", "Delivery method", types.StepPreferences, KindEnum, func(a *Application) *DeliveryMethod { return &a.DeliveryMethod })

	HomeDescription  = newField("homeDescription", "Home description", types.StepHousehold, KindString, func(a *Application) *string { return &a.HomeDescription })
	DailySchedule    = newField("dailySchedule", "Daily schedule", types.StepHousehold, KindString, func(a *Application) *string { return &a.DailySchedule })
	WhyAdopt         = newField("whyAdopt", "Why you want to adopt", types.StepHousehold, KindString, func(a *Application) *string { return &a.WhyAdopt })
	HasOtherPets     = newField("hasOtherPets", "Other pets", types.StepHousehold, KindBool, func(a *Application) *bool { return &a.HasOtherPets })
	OtherPetsDetails = newField("otherPetsDetails", "Other pets details", types.StepHousehold, KindString, func(a *Application) *string { return &a.OtherPetsDetails })
	HasChildren      = newField("hasChildren", "Children", types.StepHousehold, KindBool, func(a *Application) *bool { return &a.HasChildren })
	ChildrenAges     = newField("childrenAges", "Children ages", types.StepHousehold, KindString, func(a *Application) *string { return &a.ChildrenAges })
	HasFence         = newField("hasFence", "Fenced yard", types.StepHousehold, KindBool, func(a *Application) *bool { return &a.HasFence })
	ExercisePlan     = newField("exercisePlan", "Exercise plan", types.StepHousehold, KindString, func(a *Application) *string { return &a.ExercisePlan })
	PreviousPuppies  = newField("previousPuppies", "Previous puppies", types.StepHousehold, KindInt, func(a *Application) *int { return &a.PreviousPuppies })
	Veterinarian     = newField("veterinarian", "Veterinarian", types.StepHousehold, KindString, func(a *Application) *string { return &a.Veterinarian })

	SpayNeuterAgreement = newField("spayNeuterAgreement", "Spay/neuter agreement", types.StepAgreements, KindBool, func(a *Application) *bool { return &a.SpayNeuterAgreement })
	NewsletterOptIn     = newField("newsletterOptIn", "Newsletter", types.StepAgreements, KindBool, func(a *Application) *bool { return &a.NewsletterOptIn })
	SMSOptIn            = newField("smsOptIn", "Text messages", types.StepAgreements, KindBool, func(a *Application) *bool { return &a.SMSOptIn })
)

var registry = []Info{
	FirstName.Info, LastName.Info, Email.Info, ConfirmEmail.Info, Phone.Info,
	Address.Info, City.Info, State.Info, ZipCode.Info,
	BreedChoices.Info, Sizes.Info, PreferredGender.Info, ActivityLevel.Info,
	PickupLocation.Info, Delivery.Info,
	HomeDescription.Info, DailySchedule.Info, WhyAdopt.Info,
	HasOtherPets.Info, OtherPetsDetails.Info, HasChildren.Info, ChildrenAges.Info,
	HasFence.Info, ExercisePlan.Info, PreviousPuppies.Info, Veterinarian.Info,
	SpayNeuterAgreement.Info, NewsletterOptIn.Info, SMSOptIn.Info,
}

var byKey = func() map[string]Info {
	m := make(map[string]Info, len(registry))
	for _, info := range registry {
		m[info.Key] = info
	}
	return m
}()

// All returns every registered field in declaration order.
func All() []Info {
	return append([]Info(nil), registry...)
}

func Lookup(key string) (Info, bool) {
	info, ok := byKey[key]
	return info, ok
}

// StepKeys returns the keys of the fields collected on step.
func StepKeys(step types.Step) []string {
	var keys []string
	for _, info := range registry {
		if info.Step == step {
			keys = append(keys, info.Key)
		}
	}
	return keys
}

// StepPointers returns the JSON pointers a step may write, including the
// element paths of list fields.
func StepPointers(step types.Step) []string {
	var paths []string
	for _, info := range registry {
		if info.Step != step {
			continue
		}
		paths = append(paths, info.Pointer())
		switch info.Kind {
		case KindStringList:
			paths = append(paths, info.Pointer()+"/-")
		case KindBreedList:
			paths = append(paths, info.Pointer()+"/-", info.Pointer()+"/-/breed", info.Pointer()+"/-/priority")
		}
	}
	return paths
}
