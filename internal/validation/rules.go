package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"yallapost/pkg/yalla"
)

const (
	MaxPostImageSize = 1 << 20
	MaxPhotoSize     = 4 << 20

	passwordSymbols = "@$!%*?&"
)

var (
	emailShape      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)

	AllowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

	dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05.000Z"}
)

func isEmailShape(fl validator.FieldLevel) bool {
	return emailShape.MatchString(fl.Field().String())
}

func isStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	return passwordCharset.MatchString(password) &&
		hasMixedCase(password) &&
		strings.ContainsAny(password, "0123456789") &&
		strings.ContainsAny(password, passwordSymbols)
}

func isMixedPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	return hasMixedCase(password) && strings.ContainsAny(password, "0123456789")
}

func hasMixedCase(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0 && strings.IndexFunc(s, unicode.IsLower) >= 0
}

// isPostText accepts valid UTF-8 made of letters, numbers, punctuation,
// symbols, whitespace and emoji sequences. Angle brackets are rejected to
// keep markup out.
func isPostText(fl validator.FieldLevel) bool {
	text := fl.Field().String()
	if !utf8.ValidString(text) {
		return false
	}
	return strings.IndexFunc(text, func(r rune) bool {
		return !allowedTextRune(r)
	}) < 0
}

func allowedTextRune(r rune) bool {
	switch {
	case r == '<' || r == '>':
		return false
	case unicode.IsSpace(r):
		return true
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsMark(r):
		return true
	case r == '\u200d', r == '\ufe0f', r == '\u20e3':
		return true
	case r >= 0xe0020 && r <= 0xe007f:
		return true
	}
	return false
}

// ParseDate accepts the date formats the backend and date inputs produce.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// hasMinAge compares calendar years only, a birthday later this year still counts.
func (v *Validator) hasMinAge(fl validator.FieldLevel) bool {
	minAge, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	born, ok := ParseDate(fl.Field().String())
	if !ok {
		return false
	}
	return v.now().Year()-born.Year() >= minAge
}

// ImageType sniffs the content type of an upload.
func ImageType(file *yalla.File) string {
	return mimetype.Detect(file.Data).String()
}

func isAllowedImage(file *yalla.File) bool {
	detected := mimetype.Detect(file.Data)
	for _, allowed := range AllowedImageTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func validatePostImage(sl validator.StructLevel) {
	form := sl.Current().Interface().(PostForm)
	if form.Image == nil {
		return
	}
	checkImage(sl, form.Image, "image", "Image", MaxPostImageSize)
}

func validatePhoto(sl validator.StructLevel) {
	form := sl.Current().Interface().(PhotoForm)
	if len(form.Photos) != 1 || form.Photos[0] == nil {
		sl.ReportError(form.Photos, "photo", "Photos", "required", "")
		return
	}
	checkImage(sl, form.Photos[0], "photo", "Photos", MaxPhotoSize)
}

func checkImage(sl validator.StructLevel, file *yalla.File, field, structField string, limit int) {
	if file.Size() > limit {
		sl.ReportError(file.Size(), field, structField, "filesize", strconv.Itoa(limit))
		return
	}
	if !isAllowedImage(file) {
		sl.ReportError(file.Name, field, structField, "imagetype", "")
	}
}
