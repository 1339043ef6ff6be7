// Package flow loads the declarative workflow file that drives a batch run:
// the manifest location, the permittivity forwarded to the solver stage, the
// ordered external pipeline stages, the port definitions to apply across
// variants, and the plot command. Workflow files are HCL; stage and plot
// commands are expressions evaluated against the resolved manifest path and
// permittivity so tools can splice them into their argv.
package flow
