package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Category string  `validate:"required,wastecategory"`
	Quantity float64 `validate:"required,gt=0"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&sampleRequest{Category: "Recycled", Quantity: 2.5}))

	err := ValidateStruct(&sampleRequest{Category: "Rubbish", Quantity: 1})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "wastecategory")

	err = ValidateStruct(&sampleRequest{Category: "Paper", Quantity: 0})
	assert.Error(t, err)

	err = ValidateStruct(&sampleRequest{Category: "Paper", Quantity: -3})
	assert.Error(t, err)
}

func TestValidateStructNonStruct(t *testing.T) {
	assert.Error(t, ValidateStruct("not a struct"))
	assert.NoError(t, ValidateStruct(nil))
}
