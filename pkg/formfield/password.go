package formfield

import (
	"fmt"

	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/record"
)

// Password never reads back the stored hash. Empty input leaves the column
// untouched; anything else is stored as a bcrypt hash.
type Password struct {
	Base
	Cost int
}

func NewPassword() *Password {
	return &Password{Base: Base{Name: "password"}, Cost: bcrypt.DefaultCost}
}

func (p *Password) Browse(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return map[string]interface{}{c.Column(): ""}
}

func (p *Password) Edit(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return p.Browse(c, value, rec)
}

func (p *Password) Show(c Context, value interface{}, rec *record.Record) map[string]interface{} {
	return p.Browse(c, value, rec)
}

func (p *Password) Store(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	plain := cast.ToString(value)
	if plain == "" {
		return map[string]interface{}{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), p.Cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", c.Column(), err)
	}
	return map[string]interface{}{c.Column(): string(hash)}, nil
}

func (p *Password) Update(c Context, value, old interface{}, rec *record.Record, input map[string]interface{}) (map[string]interface{}, error) {
	return p.Store(c, value, old, rec, input)
}

// Query ignores filters on password columns
func (p *Password) Query(c Context, query common.SelectQuery, column string, value interface{}) common.SelectQuery {
	return query
}

// CheckPassword reports whether plain matches a hash written by Store
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
