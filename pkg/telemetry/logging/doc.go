// Package logging builds the process-wide structured logger.
//
// The logger wraps log/slog. Output is JSON or text, and when RedactPII is
// set, string attributes are scrubbed of customer emails and phone numbers
// before they are written, since order facts carry both.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactPII: true})
//	if err != nil {
//		return err
//	}
//	sim := engine.NewSimulator(logger.Slog(), cfg)
package logging
