// Package utils hosts ambient helpers shared by smv commands: the zap logger
// factory, the Viper-backed configuration loader, command context accessors,
// and a flushing writer used for interactive output.
package utils
