package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/screentime"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateScreenTimeBlock, model.ScreenTimeBlock{})
	v.RegisterValidation("enum", validateEnum)
	return v
}

// validateEnum accepts fields whose type reports its own valid values.
func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && e.Valid()
}

func validateScreenTimeBlock(sl validator.StructLevel) {
	block := sl.Current().Interface().(model.ScreenTimeBlock)

	// An unset window means no block at all.
	if block.Start == "" && block.End == "" && len(block.Days) == 0 {
		return
	}
	if _, err := screentime.ParseClock(block.Start); err != nil {
		sl.ReportError(block.Start, "start", "Start", "clock", "")
	}
	if _, err := screentime.ParseClock(block.End); err != nil {
		sl.ReportError(block.End, "end", "End", "clock", "")
	}

	seen := make(map[int]bool, len(block.Days))
	for _, d := range block.Days {
		if d < 0 || d > 6 {
			sl.ReportError(block.Days, "days", "Days", "weekday", "")
			return
		}
		if seen[d] {
			sl.ReportError(block.Days, "days", "Days", "unique", "")
			return
		}
		seen[d] = true
	}
}

func (s *Store) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fe.Tag()
	}
	return ve
}
