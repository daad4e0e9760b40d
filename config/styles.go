package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/dream-pipeline/emotion"
)

type styleFile struct {
	Default string            `yaml:"default"`
	Styles  map[string]string `yaml:"styles"`
}

// LoadStyles returns the built-in table when path is empty. A file replaces the whole table.
func LoadStyles(path string) (*emotion.StyleTable, error) {
	if path == "" {
		return emotion.DefaultStyles(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}
	defer f.Close()

	var sf styleFile
	if err := yaml.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("styles decode %s: %w", path, err)
	}
	return emotion.NewStyleTable(sf.Styles, sf.Default), nil
}
