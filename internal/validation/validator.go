package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// instance возвращает общий валидатор (validator кеширует разбор структур)
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// В путях ошибок используем имена полей из JSON
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		if err := validate.RegisterValidation("integer", isInteger); err != nil {
			panic(err)
		}
		if err := validate.RegisterValidation("samebatch", sameBatch); err != nil {
			panic(err)
		}
	})
	return validate
}

// isInteger проверяет, что число JSON не имеет дробной части
func isInteger(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := f.Float()
		return !math.IsInf(v, 0) && v == math.Trunc(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

// sameBatch сверяет clientBatchId дельты с первой дельтой пакета.
// Проверяется в ходе dive, поэтому ошибка приходит в порядке элементов.
func sameBatch(fl validator.FieldLevel) bool {
	top := reflect.Indirect(fl.Top())
	if !top.CanInterface() {
		return true
	}
	payload, ok := top.Interface().(api.VotePayload)
	if !ok || len(payload.Votes) == 0 {
		return true
	}
	return fl.Field().String() == strings.TrimSpace(payload.Votes[0].ClientBatchID)
}

// Struct проверяет структуру по тегам validate и возвращает
// *models.ValidationError для первого поля, не прошедшего проверку
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate: %w", err)
	}

	first := fieldErrs[0]
	return models.NewValidationError(fieldPath(first.Namespace()), describe(first))
}

// fieldPath убирает имя корневой структуры: "VotePayload.votes[0].delta" -> "votes[0].delta"
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

// describe формирует понятное сообщение для тега
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "integer":
		return "must be an integer"
	case "samebatch":
		return "all votes in a payload must share one clientBatchId"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
