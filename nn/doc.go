//Package nn implements graph-network property models for atomic
//structures: basis expansion of bond lengths and angles, message-passing
//rounds over the periodic bond graph, and gated readout into scalar
//properties. A Model predicts, a Potential additionally differentiates
//the prediction into forces and stress, and bundles persist both.
package nn
