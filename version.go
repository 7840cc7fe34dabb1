package parley

// Version is the release of the module, overridden at link time for builds.
var Version = "0.1.0-dev"
