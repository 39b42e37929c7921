// Package workflow holds the concrete step implementations of the guided
// CRISPR experiment-design workflows (intake, knockout, base editing,
// delivery, validation, off-target analysis, troubleshooting) and the
// registry that binds them into a core.Router. External computations such as
// language-model parsing, guide design, primer design and specificity checks
// enter through the narrow collaborator interfaces on Toolkit.
package workflow
