package registration

// RegistrationForm is the public sign-up form.
type RegistrationForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email_shape"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	BirthDate       string `json:"birth_date" validate:"required,birthdate"`
	IdentifierKind  string `json:"identifier_kind" validate:"required,idkind"`
	IdentifierValue string `json:"identifier_value" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty,cl_mobile"`
	EmergencyPhone  string `json:"emergency_phone" validate:"omitempty,cl_mobile"`
}

// ProfileForm is the self-service profile editor.
type ProfileForm struct {
	FirstName       string `json:"first_name" validate:"required"`
	PaternalSurname string `json:"paternal_surname" validate:"required"`
	MaternalSurname string `json:"maternal_surname" validate:"required"`
	Email           string `json:"email" validate:"required,email_shape"`
	BirthDate       string `json:"birth_date" validate:"required,birthdate"`
	Sex             string `json:"sex" validate:"required,oneof=femenino masculino otro"`
	IdentifierKind  string `json:"identifier_kind" validate:"required,idkind"`
	IdentifierValue string `json:"identifier_value" validate:"required"`
	Phone           string `json:"phone" validate:"required,cl_mobile"`
	EmergencyPhone  string `json:"emergency_phone" validate:"omitempty,cl_mobile"`
}

// ClubForm is the administrator's club editor. Every contact field is optional.
type ClubForm struct {
	FantasyName  string `json:"fantasy_name" validate:"required"`
	LegalName    string `json:"legal_name"`
	FoundingDate string `json:"founding_date" validate:"omitempty,birthdate"`
	RUT          string `json:"rut" validate:"omitempty,rut"`
	Email        string `json:"email" validate:"omitempty,email_shape"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	Website      string `json:"website" validate:"omitempty,weburl"`
	// Active is the vigencia flag; nil keeps the current value, or true on create.
	Active *bool `json:"active,omitempty"`
}
