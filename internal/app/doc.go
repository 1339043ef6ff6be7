// Package app wires the workflow loader, manifest registry, solve pipeline,
// port store and plot dispatcher into one run, and owns the application's
// logger and configuration.
package app
