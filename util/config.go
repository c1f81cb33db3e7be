package util

import (
	"encoding/xml"
	"os"
)

func LoadConfig(filename string, v interface{}) error {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return xml.Unmarshal(contents, v)
}

func SaveConfig(filename string, v interface{}) error {
	contents, err := xml.MarshalIndent(v, "  ", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, contents, 0644)
}
