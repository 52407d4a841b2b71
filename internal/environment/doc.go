// Package environment reads the GitHub Actions environment contract into an
// immutable RunningConfiguration consumed by every apisec command.
//
// The action inputs use hyphenated INPUT_* names that sit outside viper's key
// mapping, so the loader reads the process environment directly through an
// injectable lookup function.
package environment
