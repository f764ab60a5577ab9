// Package config loads, normalizes, and validates vidsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file from the working directory,
// and honours environment fallbacks such as VIDSUB_TARGET_LANGUAGE, LLM_API_KEY,
// and HF_TOKEN. The Config type centralizes every knob the CLI needs so the
// batch driver, recognizer, and translation providers are wired from one place.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
