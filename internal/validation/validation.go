// Package validation holds the form predicates used by onboarding and the CRUD endpoints.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\([0-9]{2}\) [0-9]{5}-[0-9]{4}$`)
)

// Messages shown next to the offending field.
const (
	MsgNameRequired = "Nome é obrigatório"
	MsgEmail        = "Email inválido"
	MsgCPF          = "CPF inválido"
	MsgPhone        = "Celular inválido"
	MsgCNPJ         = "CNPJ inválido"
	MsgRequired     = "Campo obrigatório"
)

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "dados inválidos: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, model.ErrValidation) match.
func (e Errors) Is(target error) bool {
	return target == model.ErrValidation
}

// Err returns nil when there are no field errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateCPF accepts 11 digits once "." and "-" are removed. The check digits are not verified.
func ValidateCPF(cpf string) bool {
	digits := strings.NewReplacer(".", "", "-", "").Replace(cpf)
	if utf8.RuneCountInString(digits) != 11 {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidatePhone accepts "(XX) XXXXX-XXXX".
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateCNPJ accepts any input with exactly 14 digits.
func ValidateCNPJ(cnpj string) bool {
	n := 0
	for _, r := range cnpj {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n == 14
}

// ValidateOnboardingForm checks the fields required to register a client.
func ValidateOnboardingForm(c *model.Client) Errors {
	errs := Errors{}
	if strings.TrimSpace(c.NomeCompleto) == "" {
		errs["nome_completo"] = MsgNameRequired
	}
	if !ValidateEmail(c.Email) {
		errs["email"] = MsgEmail
	}
	if !ValidateCPF(c.CPF) {
		errs["cpf"] = MsgCPF
	}
	if !ValidatePhone(c.Celular) {
		errs["celular"] = MsgPhone
	}
	return errs
}

// ValidateClientChanges validates only the fields present in a partial update.
func ValidateClientChanges(changes map[string]any) Errors {
	errs := Errors{}
	if v, ok := changes["nome_completo"]; ok && strings.TrimSpace(asString(v)) == "" {
		errs["nome_completo"] = MsgNameRequired
	}
	if v, ok := changes["email"]; ok && !ValidateEmail(asString(v)) {
		errs["email"] = MsgEmail
	}
	if v, ok := changes["cpf"]; ok && !ValidateCPF(asString(v)) {
		errs["cpf"] = MsgCPF
	}
	if v, ok := changes["celular"]; ok && !ValidatePhone(asString(v)) {
		errs["celular"] = MsgPhone
	}
	return errs
}

// ValidateCompany requires nome and a 14 digit cnpj. endereco is optional.
func ValidateCompany(c *model.Company) Errors {
	errs := Errors{}
	if strings.TrimSpace(c.Nome) == "" {
		errs["nome"] = MsgRequired
	}
	if strings.TrimSpace(c.CNPJ) == "" {
		errs["cnpj"] = MsgRequired
	} else if !ValidateCNPJ(c.CNPJ) {
		errs["cnpj"] = MsgCNPJ
	}
	return errs
}

func ValidateCompanyChanges(changes map[string]any) Errors {
	errs := Errors{}
	if v, ok := changes["nome"]; ok && strings.TrimSpace(asString(v)) == "" {
		errs["nome"] = MsgRequired
	}
	if v, ok := changes["cnpj"]; ok && !ValidateCNPJ(asString(v)) {
		errs["cnpj"] = MsgCNPJ
	}
	return errs
}

// ValidateCaseLaw requires nome, texto and secao.
func ValidateCaseLaw(c *model.CaseLaw) Errors {
	errs := Errors{}
	if strings.TrimSpace(c.Nome) == "" {
		errs["nome"] = MsgRequired
	}
	if strings.TrimSpace(c.Texto) == "" {
		errs["texto"] = MsgRequired
	}
	if strings.TrimSpace(c.Secao) == "" {
		errs["secao"] = MsgRequired
	}
	return errs
}

func ValidateCaseLawChanges(changes map[string]any) Errors {
	errs := Errors{}
	for _, field := range []string{"nome", "texto", "secao"} {
		if v, ok := changes[field]; ok && strings.TrimSpace(asString(v)) == "" {
			errs[field] = MsgRequired
		}
	}
	return errs
}

// RegisterBindings adds the cpf, cnpj and celular tags to gin's validator so
// request structs can use binding:"cpf".
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Register(v)
}

// Register adds the custom tags to v and reports fields by their json name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	tags := map[string]func(string) bool{
		"cpf":     ValidateCPF,
		"cnpj":    ValidateCNPJ,
		"celular": ValidatePhone,
	}
	for tag, fn := range tags {
		fn := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

var tagMessages = map[string]string{
	"required": MsgRequired,
	"email":    MsgEmail,
	"cpf":      MsgCPF,
	"cnpj":     MsgCNPJ,
	"celular":  MsgPhone,
}

// FromBinding converts validator errors raised while binding a request into Errors.
// It returns false for any other error, such as malformed JSON.
func FromBinding(err error) (Errors, bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}
	errs := Errors{}
	for _, fe := range ve {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "Valor inválido"
		}
		errs[fe.Field()] = msg
	}
	return errs, true
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
