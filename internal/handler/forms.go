package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"saferoute/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type RegisterForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"required,email,max=254"`
	FirstName string `form:"first_name" binding:"required,max=150"`
	LastName  string `form:"last_name" binding:"required,max=150"`
	Phone     string `form:"phone" binding:"max=20"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type ProfileForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Email     string `form:"email" binding:"omitempty,email,max=254"`
	Phone     string `form:"phone" binding:"max=20"`
}

type IncidentForm struct {
	Title        string `form:"title" binding:"required,max=200"`
	Category     string `form:"category" binding:"required"`
	Description  string `form:"description" binding:"required"`
	Severity     string `form:"severity" binding:"required"`
	Latitude     string `form:"latitude" binding:"required,latitude"`
	Longitude    string `form:"longitude" binding:"required,longitude"`
	LocationName string `form:"location_name" binding:"max=200"`
	IncidentDate string `form:"incident_date" binding:"required"`
	ImageType    string `form:"image_type"`
}

type ZoneForm struct {
	Name      string `form:"name" binding:"required,max=200"`
	Latitude  string `form:"latitude" binding:"required,latitude"`
	Longitude string `form:"longitude" binding:"required,longitude"`
	Radius    string `form:"radius" binding:"omitempty,zone_radius"`
}

type DiscussionForm struct {
	Title    string `form:"title"`
	Content  string `form:"content"`
	Category string `form:"category"`
}

type ReplyForm struct {
	Content string `form:"reply_content" binding:"required"`
}

type ReportEditForm struct {
	Title        string `form:"title" binding:"required,max=200"`
	Category     string `form:"category" binding:"required"`
	Description  string `form:"description" binding:"required"`
	Severity     string `form:"severity" binding:"required"`
	LocationName string `form:"location_name" binding:"max=200"`
	IsVerified   bool   `form:"is_verified"`
}

type UserEditForm struct {
	IsVerified bool `form:"is_verified"`
	IsStaff    bool `form:"is_staff"`
}

var registerValidations sync.Once

// bindForm binds the request form into dst and turns validator failures into
// a ValidationError keyed by form field name.
func bindForm(c *gin.Context, dst any) error {
	registerValidations.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("zone_radius", validZoneRadius)
		}
	})
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.FieldError("", "The submitted form could not be read.")
	}
	out := domain.NewValidationError()
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		out.Add(formName(t, fe.StructField()), fieldMessage(fe))
	}
	return out
}

func formName(t reflect.Type, field string) string {
	if f, ok := t.FieldByName(field); ok {
		if tag, _, _ := strings.Cut(f.Tag.Get("form"), ","); tag != "" {
			return tag
		}
	}
	return strings.ToLower(field)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "latitude":
		return "Enter a valid latitude between -90 and 90."
	case "longitude":
		return "Enter a valid longitude between -180 and 180."
	case "zone_radius":
		return fmt.Sprintf("Radius must be between %g and %g km.", domain.ZoneRadiusMin, domain.ZoneRadiusMax)
	default:
		return "Enter a valid value."
	}
}

func validZoneRadius(fl validator.FieldLevel) bool {
	km, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
	return err == nil && domain.ValidRadius(km)
}

// parseCoord parses a value already checked by the latitude/longitude tags.
func parseCoord(raw string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return f
}

// formValues snapshots the posted values of keys for re-rendering a form.
func formValues(c *gin.Context, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = c.PostForm(k)
	}
	return out
}
