// Package dataset prepares and inspects YOLO-format detection datasets.
//
// Prepare turns a CVAT "YOLO 1.1" export into the train/val layout expected
// by detection trainers:
//
//	<out>/
//	  data.yaml
//	  train/images/  train/labels/
//	  val/images/    val/labels/
//
// Each label file holds one object per line as "class cx cy w h", with the
// box centre and size normalized to the image dimensions.
//
// LoadDataFile and Analyze read such a layout back and summarize the box
// geometry per split and class; RenderTable prints the summary for a
// terminal.
package dataset
