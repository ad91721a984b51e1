// Package classifier defines the scoring interface the pipeline depends on
// and a registry of model backends selectable by name.
//
// A backend loads a model file and returns a Model: the Classifier that maps
// a features.Vector to a probability per raw category, plus the feature
// Schema the model was trained against. The built-in random-forest backend
// reads a JSON decision-forest export. The cnn and naive-bayes backends are
// registered so configuration can name them, but opening them fails with
// ErrNotImplemented instead of degrading to another model.
package classifier
