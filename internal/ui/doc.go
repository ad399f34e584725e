// Package ui implements the live measurements dashboard for the watch
// command.
//
// The dashboard is a bubbletea program that polls the charger's measurement
// snapshot on a fixed interval and renders the latest sample of each channel
// in a styled table. A spinner indicates an in-flight poll; poll failures
// are shown inline without terminating the program.
package ui
