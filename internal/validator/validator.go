// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("trade_type", validateTradeType)
		_ = v.RegisterValidation("option_type", validateOptionType)
		_ = v.RegisterValidation("broker_code", validateBrokerCode)
	}
}

func validateTradeType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "B", "S", "SS", "BC":
		return true
	}
	return false
}

func validateOptionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "C", "P":
		return true
	}
	return false
}

func validateBrokerCode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "IBKR", "QTRD", "WS":
		return true
	}
	return false
}
