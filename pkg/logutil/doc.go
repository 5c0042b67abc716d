// Package logutil provides the structured application logger.
//
// A Logger is constructed once from a configuration snapshot and handed to
// everything that needs it. There is no package level logger; code that has
// no logger at hand gets a discarding one from Get.
//
//	cfg, err := confutil.Load(os.DirFS("."))
//	if err != nil {
//	    return err
//	}
//
//	log, err := logutil.New(cfg, "payments")
//	if err != nil {
//	    return err
//	}
//
//	log.At("payments.Charge").Info("charge accepted", "amount", 42)
//
// Every entry carries the fields type, message, app and at, plus optional
// extra attributes. The at field names the call site and is passed
// explicitly with At, since the logger never inspects the call stack.
//
// The destination is selected with logging.env:
//   - local: one human readable line per entry on the console, formatted
//     as TYPE|at|message|key:value|
//   - gcp: one JSON object per entry, shaped for structured cloud logging
//
// Setting logging.gelf_address additionally fans every entry out to
// Graylog.
//
// Loggers travel through a context with WithLogger and Start, which also
// maintains trace IDs for nested subsystems:
//
//	ctx = logutil.WithLogger(ctx, log)
//	ctx = logutil.Start(ctx, "merge-main")
//	logutil.Get(ctx).At("gitutil.MergeMain").Debug("fetching")
package logutil
