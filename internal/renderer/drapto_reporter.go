package renderer

import (
	"fmt"

	draptolib "github.com/five82/drapto"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stageTitle = cases.Title(language.English)

// progressReporter adapts the drapto Reporter interface to the engine's
// Progress callback. Delivery progress lands in the 0-100 range under the
// "delivery" stage family; informational events pass through as messages at
// the current stage.
type progressReporter struct {
	callback func(Progress)
}

func newProgressReporter(callback func(Progress)) *progressReporter {
	return &progressReporter{callback: callback}
}

func (r *progressReporter) emit(stage, message string, percent float64) {
	r.callback(Progress{Stage: stage, Message: message, Percent: percent})
}

func (r *progressReporter) Hardware(s draptolib.HardwareSummary) {
	r.emit("delivery", fmt.Sprintf("encoding on %s", s.Hostname), 0)
}

func (r *progressReporter) Initialization(s draptolib.InitializationSummary) {
	r.emit("delivery", fmt.Sprintf("preparing %s (%s)", s.InputFile, s.Resolution), 0)
}

func (r *progressReporter) StageProgress(s draptolib.StageProgress) {
	r.emit(stageTitle.String(s.Stage), s.Message, float64(s.Percent))
}

func (r *progressReporter) CropResult(s draptolib.CropSummary) {
	r.emit("delivery", s.Message, 0)
}

func (r *progressReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.emit("delivery", fmt.Sprintf("encoder %s preset %s", s.Encoder, s.Preset), 0)
}

func (r *progressReporter) EncodingStarted(totalFrames uint64) {
	r.emit("delivery", fmt.Sprintf("encoding %d frames", totalFrames), 0)
}

func (r *progressReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit("delivery", fmt.Sprintf("%.1fx speed, %.0f fps", s.Speed, s.FPS), float64(s.Percent))
}

func (r *progressReporter) ValidationComplete(s draptolib.ValidationSummary) {
	if s.Passed {
		r.emit("delivery", "validation passed", 100)
		return
	}
	r.emit("delivery", "validation failed", 100)
}

func (r *progressReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit("delivery", fmt.Sprintf("encoded %s", s.OutputFile), 100)
}

func (r *progressReporter) Warning(message string) {
	r.emit("delivery", message, -1)
}

func (r *progressReporter) Error(e draptolib.ReporterError) {
	r.emit("delivery", fmt.Sprintf("%s: %s", e.Title, e.Message), -1)
}

func (r *progressReporter) OperationComplete(message string) {
	r.emit("delivery", message, 100)
}

func (r *progressReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.emit("delivery", fmt.Sprintf("encoding %d files", s.TotalFiles), 0)
}

func (r *progressReporter) FileProgress(s draptolib.FileProgressContext) {
	r.emit("delivery", fmt.Sprintf("file %d of %d", s.CurrentFile, s.TotalFiles), -1)
}

func (r *progressReporter) BatchComplete(s draptolib.BatchSummary) {
	r.emit("delivery", fmt.Sprintf("%d of %d files encoded", s.SuccessfulCount, s.TotalFiles), 100)
}

var _ draptolib.Reporter = (*progressReporter)(nil)
