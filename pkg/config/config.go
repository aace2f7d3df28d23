// Package config loads configuration structs from YAML files and environment
// variables using the env, yaml, default and required struct tags.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator interface allows config structs to implement custom validation logic.
// If a config struct implements this interface, validation will be automatically
// called after loading configuration from files and environment variables.
type Validator interface {
	Validate() error
}

// setFromString parses raw according to the field's kind and stores it.
func setFromString(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		duration, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %w", raw, err)
		}
		field.SetInt(int64(duration))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		intVal, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %w", raw, err)
		}
		field.SetInt(intVal)
	case reflect.Float64, reflect.Float32:
		floatVal, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to convert %s to float: %w", raw, err)
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %w", raw, err)
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		// comma-separated string slices only
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				slice = reflect.Append(slice, reflect.ValueOf(v).Convert(field.Type().Elem()))
			}
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}

func isRequired(tag reflect.StructField) bool {
	required := strings.ToLower(tag.Tag.Get("required"))
	return (required == "true" || required == "1") && tag.Tag.Get("default") == ""
}

// applyEnv walks the struct and overlays env-tagged fields whose variable is set.
// The returned set records which fields came from the environment.
func applyEnv(val reflect.Value, typeOfT reflect.Type, fromEnv map[string]bool) error {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyEnv(field, fieldType.Type, fromEnv); err != nil {
				return err
			}
			continue
		}

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			continue
		}
		envVal, ok := os.LookupEnv(tag)
		if !ok || envVal == "" {
			continue
		}
		if err := setFromString(field, envVal); err != nil {
			return fmt.Errorf("env %s: %w", tag, err)
		}
		fromEnv[typeOfT.Name()+"."+fieldType.Name] = true
	}
	return nil
}

// applyDefaults fills zero fields from their default tag and collects missing required fields.
func applyDefaults(val reflect.Value, typeOfT reflect.Type, fromEnv map[string]bool) error {
	var result error
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typeOfT.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != durationType {
			if err := applyDefaults(field, fieldType.Type, fromEnv); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		if !field.IsZero() {
			continue
		}
		if isRequired(fieldType) {
			result = multierror.Append(result, fmt.Errorf("required field env:%s / yaml:%s is missing",
				fieldType.Tag.Get("env"), fieldType.Tag.Get("yaml")))
			continue
		}

		defaultTag := fieldType.Tag.Get("default")
		if defaultTag == "" || fromEnv[typeOfT.Name()+"."+fieldType.Name] {
			continue
		}
		if err := setFromString(field, defaultTag); err != nil {
			result = multierror.Append(result, fmt.Errorf("default for %s: %w", fieldType.Name, err))
		}
	}
	return result
}

func validate(dest any) error {
	if validator, ok := dest.(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// GetConfigFromEnvVars loads configuration from environment variables only.
// It processes struct tags: env, default, required.
// Example usage:
//
//	var cfg MyConfig
//	err := GetConfigFromEnvVars(&cfg)
func GetConfigFromEnvVars[T any](dest *T) error {
	if err := load(dest); err != nil {
		return err
	}
	return validate(dest)
}

func load[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()
	typeOfT := val.Type()
	if typeOfT.Kind() != reflect.Struct {
		return fmt.Errorf("config destination must be a struct, got %s", typeOfT.Kind())
	}

	fromEnv := make(map[string]bool)
	if err := applyEnv(val, typeOfT, fromEnv); err != nil {
		return err
	}
	if err := applyDefaults(val, typeOfT, fromEnv); err != nil {
		var zero T
		*dest = zero
		return err
	}
	return nil
}

// GetConfig loads configuration from YAML file first, then overlays environment variables.
// ${VAR} references in the file are expanded from the environment before parsing.
// If filepath is empty, only environment variables are used.
// If allowFileErrors is true, file read/parse errors fallback to env vars only.
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if err := LoadConfig(dest, filepath, allowFileErrors); err != nil {
		return err
	}
	return validate(dest)
}

// LoadConfig is GetConfig without the Validator hook, for callers that apply
// further overrides (such as command line flags) before validating.
func LoadConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return load(dest)
	}
	data, err := os.ReadFile(filepath)
	if err != nil {
		if allowFileErrors {
			return load(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), dest); err != nil {
		if allowFileErrors {
			return load(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return load(dest)
}
