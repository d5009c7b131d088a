// Package utils exposes reusable helpers consumed by multiple commands.
//
// It currently houses the ConfigurationLoader, LoggerFactory, and command
// context helpers that integrate Viper, environment variables, and zap
// logging for the forksync CLI.
package utils
