package dto

// UpdateDeliveryStatusRequest moves a delivery to a new state.
type UpdateDeliveryStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CompleteDeliveryRequest marks a delivery as delivered. The proof
// image reference is mandatory.
type CompleteDeliveryRequest struct {
	ProofOfDeliveryImage string `json:"proofOfDeliveryImage" binding:"required"`
	DeliveryNote         string `json:"deliveryNote"`
}

// FailDeliveryRequest marks a delivery attempt as failed.
type FailDeliveryRequest struct {
	DeliveryNote string `json:"deliveryNote"`
}
