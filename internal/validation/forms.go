package validation

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"yallapost/pkg/yalla"
)

type LoginForm struct {
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required,strongpassword"`
}

func (f LoginForm) Credentials() yalla.Credentials {
	return yalla.Credentials{Email: f.Email, Password: f.Password}
}

type RegisterForm struct {
	Name        string `json:"name" validate:"required,min=2,max=20"`
	Email       string `json:"email" validate:"required,emailshape"`
	Password    string `json:"password" validate:"required,strongpassword"`
	RePassword  string `json:"rePassword" validate:"required,eqfield=Password"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,minage=15"`
	Gender      string `json:"gender" validate:"required,oneof=male female"`
}

func (f RegisterForm) Registration() yalla.Registration {
	return yalla.Registration{
		Name:        f.Name,
		Email:       f.Email,
		Password:    f.Password,
		RePassword:  f.RePassword,
		DateOfBirth: f.DateOfBirth,
		Gender:      yalla.Gender(f.Gender),
	}
}

type ChangePasswordForm struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,mixedpassword,nefield=Password"`
}

func (f ChangePasswordForm) PasswordChange() yalla.PasswordChange {
	return yalla.PasswordChange{Password: f.Password, NewPassword: f.NewPassword}
}

// PostForm is the payload of post create and edit.
type PostForm struct {
	Body  string      `json:"body" validate:"required,min=3,max=300,posttext"`
	Image *yalla.File `json:"image" validate:"-"`
}

func (f PostForm) Input() yalla.PostInput {
	return yalla.PostInput{Body: f.Body, Image: f.Image}
}

type CommentForm struct {
	Content string `json:"content" validate:"required,min=3,max=300,posttext"`
}

type PhotoForm struct {
	Photos []*yalla.File `json:"photo" validate:"-"`
}

const (
	strongPasswordMessage = "password must be minimum of 8 characters, with at least one uppercase letter, one lowercase letter, one number, and one special character"
	mixedPasswordMessage  = "Password must contain at least one uppercase letter, one lowercase letter and one number"
)

var messages = map[string]string{
	"email.required":            "email is required",
	"email.emailshape":          "enter a valid email",
	"password.required":         "password is required",
	"password.strongpassword":   strongPasswordMessage,
	"rePassword.required":       "please confirm your password",
	"rePassword.eqfield":        "passwords do not match",
	"name.required":             "name is required",
	"name.min":                  "name must be at least 2 characters or more",
	"name.max":                  "name must be at most 20 characters",
	"dateOfBirth.required":      "date of birth is required",
	"dateOfBirth.minage":        "age must be at least 15 years old",
	"gender.required":           "gender is required",
	"gender.oneof":              "gender is required",
	"newPassword.required":      "New password is required",
	"newPassword.min":           "Password must be at least 8 characters",
	"newPassword.mixedpassword": mixedPasswordMessage,
	"newPassword.nefield":       "New password must be different from current password",
	"photo.required":            "Image is required",
}

func message(fe validator.FieldError) string {
	field, tag := fe.Field(), fe.Tag()
	if field == "password" && tag == "required" && fe.StructNamespace() == "ChangePasswordForm.Password" {
		return "Current password is required"
	}
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}

	switch tag {
	case "required":
		return "Content is required"
	case "min":
		return fmt.Sprintf("Content must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Content must be at most %s characters", fe.Param())
	case "posttext":
		return "Only letters, numbers, emojis, and common punctuation are allowed"
	case "filesize":
		limit, _ := strconv.ParseUint(fe.Param(), 10, 64)
		return fmt.Sprintf("Image size should be less than %s", humanize.IBytes(limit))
	case "imagetype":
		return "Only JPEG, JPG and PNG images are allowed"
	}
	return fmt.Sprintf("%s is invalid", field)
}
