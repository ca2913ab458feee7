package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/foodfriend/foodfriend/pkg/capture"
	"github.com/foodfriend/foodfriend/pkg/food"
)

func testCmd(format string) (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{Use: "t"}
	c.Flags().String("format", format, "")
	addCaptureFlags(c)
	var out bytes.Buffer
	c.SetOut(&out)
	return c, &out
}

func TestPrintOutputFormats(t *testing.T) {
	meal := food.Meal{ID: 1, Title: "Oats", Calories: 350}
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"title": "Oats"`},
		{"yaml", "title: Oats"},
		{"txt", "Oats (350 kcal)"},
	}
	for _, tt := range tests {
		c, out := testCmd(tt.format)
		err := printOutput(c, meal, func(w io.Writer) error {
			food.PrintMeal(w, meal)
			return nil
		})
		if err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("%s output = %q, want it to contain %q", tt.format, out.String(), tt.want)
		}
	}

	c, _ := testCmd("xml")
	if err := printOutput(c, meal, func(io.Writer) error { return nil }); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestPickerFromArgs(t *testing.T) {
	c, _ := testCmd("txt")
	p, err := pickerFromArgs(c, []string{"dish.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := p.(capture.File); !ok || string(f) != "dish.jpg" {
		t.Fatalf("picker = %#v, want File(dish.jpg)", p)
	}

	if _, err := pickerFromArgs(c, nil); err == nil {
		t.Fatal("expected an error without an image or --camera")
	}
}

func TestCaptureSource(t *testing.T) {
	tests := []struct {
		flags []string
		want  capture.Source
	}{
		{nil, capture.SourceGallery},
		{[]string{"--camera"}, capture.SourceCamera},
		{[]string{"--snapshot"}, capture.SourceSnapshot},
		{[]string{"--camera", "--snapshot"}, capture.SourceSnapshot},
		{[]string{"--source", "Snapshot"}, capture.SourceSnapshot},
		{[]string{"--source", "file", "--camera"}, capture.SourceGallery},
	}
	for _, tt := range tests {
		c, _ := testCmd("txt")
		if err := c.ParseFlags(tt.flags); err != nil {
			t.Fatalf("%v: %v", tt.flags, err)
		}
		got, err := captureSource(c)
		if err != nil || got != tt.want {
			t.Errorf("%v: got %v, %v, want %v", tt.flags, got, err, tt.want)
		}
	}

	c, _ := testCmd("txt")
	c.ParseFlags([]string{"--source", "scanner"})
	if _, err := pickerFromArgs(c, []string{"dish.jpg"}); err == nil {
		t.Fatal("expected an error for an unknown source")
	}
}
