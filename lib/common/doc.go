// Package common contains code shared by the command line tools and the
// benchmark libraries:
//
//   - logger: a dragonboat logger.ILogger implementation with a compact line
//     format and optional rotating file output. All packages obtain their
//     logger with logger.GetLogger(name), InitLoggers configures them.
//   - config: the RunConfig struct describing a benchmark run, transaction
//     mix parsing and a human readable rendering of the configuration.
package common
