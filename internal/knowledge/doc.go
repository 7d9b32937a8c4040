// Package knowledge loads research databases describing filming locations
// and ranks those locations against storyboard scenes.
package knowledge
