package samcart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
)

const (
	tagPresent = "present"

	msgRequired  = "is required"
	msgNotObject = "must be an object"
)

// RequiredFields are the dotted paths a notification must carry, non-null.
var RequiredFields = []Path{
	PathOrderID,
	"customer.email",
	"customer.name",
	PathProducts,
	PathTotal,
	PathPaymentMethod,
	PathStatus,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Null values never reach the func; any non-null value, including 0,
	// false and "", counts as present.
	_ = v.RegisterValidation(tagPresent, func(fl validator.FieldLevel) bool {
		return fl.Field().IsValid()
	})
	return v
}

var requiredRules = buildRules(RequiredFields)

func buildRules(paths []Path) map[string]any {
	rules := map[string]any{}
	for _, path := range paths {
		segments := path.segments()
		node := rules
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[segment] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = tagPresent
	}
	return rules
}

// ValidateStructure checks that every required field is present and non-null.
// The returned error is coded VALIDATION_ERROR and lists the missing paths.
func ValidateStructure(ctx context.Context, event Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event must be a JSON object")
	}
	errs := validate.ValidateMapCtx(ctx, map[string]any(event), requiredRules)
	if len(errs) == 0 {
		return nil
	}

	details := map[string]string{}
	flattenErrors("", errs, details)
	expandMissingParents(event, details)

	missing := make([]string, 0, len(details))
	for field := range details {
		missing = append(missing, field)
	}
	sort.Strings(missing)

	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))).
		WithDetails(details)
}

func flattenErrors(prefix string, errs map[string]any, out map[string]string) {
	for field, value := range errs {
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		switch v := value.(type) {
		case map[string]any:
			flattenErrors(name, v, out)
		case error:
			out[name] = validationMessage(v)
		default:
			out[name] = "is invalid"
		}
	}
}

// expandMissingParents reports an absent parent object as its required leaves,
// so a missing customer reads as customer.email and customer.name.
func expandMissingParents(event Event, details map[string]string) {
	for field, msg := range details {
		if msg != msgNotObject {
			continue
		}
		if _, ok := event.Lookup(Path(field)); ok {
			continue
		}
		delete(details, field)
		for _, path := range RequiredFields {
			if strings.HasPrefix(string(path), field+".") {
				details[string(path)] = msgRequired
			}
		}
	}
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == tagPresent {
		return msgRequired
	}
	return msgNotObject
}
