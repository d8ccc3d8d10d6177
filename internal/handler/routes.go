package handler

// APIV1Prefix is the base path of every versioned route.
const APIV1Prefix = "/api/v1"
