// Package config loads the site's environment: the API and image base URLs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

// Environment variable names.
const (
	EnvAPIBaseURL      = "PUBLIC_API_BASE_URL"
	EnvImageBaseURL    = "PUBLIC_IMAGE_BASE_URL"
	EnvUseLocalBackend = "PUBLIC_USE_LOCAL_BACKEND"
)

// Env holds the values the site needs from its environment.
type Env struct {
	APIBaseURL      string `validate:"required,url"`
	ImageBaseURL    string `validate:"required,url"`
	UseLocalBackend bool
}

// LoadEnvFile loads variables from a .env file without overriding the real environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			klog.V(1).Infof("no env file at %s", path)
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	klog.V(1).Infof("loaded env file %s", path)
	return nil
}

// FromEnv reads the environment.
func FromEnv() *Env {
	return fromLookup(os.LookupEnv)
}

// FromEnvFile reads the environment, falling back to values in a .env file. Unlike LoadEnvFile
// it leaves the process environment untouched, so edits to the file are seen on the next call.
func FromEnvFile(path string) (*Env, error) {
	vars := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			klog.V(1).Infof("no env file at %s", path)
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", path, err)
		default:
			vars = m
		}
	}

	return fromLookup(func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := vars[k]
		return v, ok
	}), nil
}

func fromLookup(lookup func(string) (string, bool)) *Env {
	get := func(k string) string {
		v, _ := lookup(k)
		return strings.TrimSpace(v)
	}

	e := &Env{
		APIBaseURL:      get(EnvAPIBaseURL),
		ImageBaseURL:    get(EnvImageBaseURL),
		UseLocalBackend: parseBool(get(EnvUseLocalBackend)),
	}
	klog.V(1).Infof("api=%s images=%s local=%v", e.APIBaseURL, e.ImageBaseURL, e.UseLocalBackend)
	return e
}

// Validate checks that both base URLs are present and well formed.
func (e *Env) Validate() error {
	err := validator.New().Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	names := map[string]string{
		"APIBaseURL":   EnvAPIBaseURL,
		"ImageBaseURL": EnvImageBaseURL,
	}
	errs := []error{}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("missing required environment variable %s", names[fe.Field()]))
		default:
			errs = append(errs, fmt.Errorf("%s is not a valid URL: %q", names[fe.Field()], fe.Value()))
		}
	}
	return errors.Join(errs...)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
