// core/registry.go
//
// Metadata for the closed property enumeration: built-in default, whether
// the value inherits from the parent, and which caches a write invalidates.

package core

import "github.com/kryonlabs/kryon-renderer/krb"

type PropInfo struct {
	Default   Value
	Inherited bool
	// AffectsLayout marks properties whose writes dirty layout up to the
	// root. AffectsDescendants marks properties whose writes invalidate the
	// resolved caches of the whole subtree.
	AffectsLayout      bool
	AffectsDescendants bool
}

var transparent = krb.Color{}
var white = krb.Color{R: 255, G: 255, B: 255, A: 255}

var registry = map[krb.PropertyKey]PropInfo{
	// Box geometry
	krb.PropWidth:       {Default: AutoValue(), AffectsLayout: true},
	krb.PropHeight:      {Default: AutoValue(), AffectsLayout: true},
	krb.PropMinWidth:    {Default: PxValue(0), AffectsLayout: true},
	krb.PropMinHeight:   {Default: PxValue(0), AffectsLayout: true},
	krb.PropMaxWidth:    {Default: AutoValue(), AffectsLayout: true},
	krb.PropMaxHeight:   {Default: AutoValue(), AffectsLayout: true},
	krb.PropBoxSizing:   {Default: EnumValue(krb.EnumBoxSizingContent), AffectsLayout: true},
	krb.PropAspectRatio: {Default: FloatValue(0), AffectsLayout: true},

	// Edges
	krb.PropPadding:       {Default: EdgesValue(krb.Edges{Top: krb.Px(0), Right: krb.Px(0), Bottom: krb.Px(0), Left: krb.Px(0)}), AffectsLayout: true},
	krb.PropPaddingTop:    {Default: AutoValue(), AffectsLayout: true},
	krb.PropPaddingRight:  {Default: AutoValue(), AffectsLayout: true},
	krb.PropPaddingBottom: {Default: AutoValue(), AffectsLayout: true},
	krb.PropPaddingLeft:   {Default: AutoValue(), AffectsLayout: true},
	krb.PropMargin:        {Default: EdgesValue(krb.Edges{Top: krb.Px(0), Right: krb.Px(0), Bottom: krb.Px(0), Left: krb.Px(0)}), AffectsLayout: true},
	krb.PropMarginTop:     {Default: AutoValue(), AffectsLayout: true},
	krb.PropMarginRight:   {Default: AutoValue(), AffectsLayout: true},
	krb.PropMarginBottom:  {Default: AutoValue(), AffectsLayout: true},
	krb.PropMarginLeft:    {Default: AutoValue(), AffectsLayout: true},

	// Border
	krb.PropBorderWidth:       {Default: PxValue(0), AffectsLayout: true},
	krb.PropBorderWidthTop:    {Default: AutoValue(), AffectsLayout: true},
	krb.PropBorderWidthRight:  {Default: AutoValue(), AffectsLayout: true},
	krb.PropBorderWidthBottom: {Default: AutoValue(), AffectsLayout: true},
	krb.PropBorderWidthLeft:   {Default: AutoValue(), AffectsLayout: true},
	krb.PropBorderColor:       {Default: ColorValue(transparent)},
	krb.PropBorderRadius:      {Default: PxValue(0)},
	krb.PropOutlineColor:      {Default: ColorValue(transparent)},
	krb.PropOutlineWidth:      {Default: PxValue(0)},

	// Paint
	krb.PropBackgroundColor: {Default: ColorValue(transparent)},
	krb.PropTextColor:       {Default: ColorValue(white), Inherited: true, AffectsDescendants: true},
	krb.PropOpacity:         {Default: FloatValue(1)},
	krb.PropTint:            {Default: ColorValue(white)},
	krb.PropShadowColor:     {Default: ColorValue(transparent)},
	krb.PropShadowOffsetX:   {Default: PxValue(0)},
	krb.PropShadowOffsetY:   {Default: PxValue(0)},
	krb.PropShadowBlur:      {Default: PxValue(0)},

	// Typography (inherited, per common cascade behavior)
	krb.PropFontSize:      {Default: FloatValue(16), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropFontWeight:    {Default: IntValue(400), Inherited: true, AffectsDescendants: true},
	krb.PropFontFamily:    {Default: StringValue(""), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropTextAlign:     {Default: EnumValue(krb.EnumTextAlignStart), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropLineHeight:    {Default: FloatValue(1.2), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropLetterSpacing: {Default: PxValue(0), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropWhiteSpace:    {Default: EnumValue(0), Inherited: true, AffectsLayout: true, AffectsDescendants: true},
	krb.PropTextOverflow:  {Default: EnumValue(0)},

	// Flex container
	krb.PropFlexDirection:  {Default: EnumValue(krb.EnumDirRow), AffectsLayout: true},
	krb.PropJustifyContent: {Default: EnumValue(krb.EnumJustifyStart), AffectsLayout: true},
	krb.PropAlignItems:     {Default: EnumValue(krb.EnumAlignStart), AffectsLayout: true},
	krb.PropAlignContent:   {Default: EnumValue(krb.EnumAlignStart), AffectsLayout: true},
	krb.PropFlexWrap:       {Default: EnumValue(krb.EnumWrapNone), AffectsLayout: true},
	krb.PropGap:            {Default: PxValue(0), AffectsLayout: true},
	krb.PropRowGap:         {Default: AutoValue(), AffectsLayout: true},
	krb.PropColumnGap:      {Default: AutoValue(), AffectsLayout: true},

	// Flex item
	krb.PropFlexGrow:   {Default: FloatValue(0), AffectsLayout: true},
	krb.PropFlexShrink: {Default: FloatValue(1), AffectsLayout: true},
	krb.PropFlexBasis:  {Default: AutoValue(), AffectsLayout: true},
	krb.PropAlignSelf:  {Default: EnumValue(krb.EnumAlignAuto), AffectsLayout: true},
	krb.PropOrder:      {Default: IntValue(0), AffectsLayout: true},

	// Positioning
	krb.PropPosition:  {Default: EnumValue(krb.EnumPositionFlow), AffectsLayout: true},
	krb.PropTop:       {Default: AutoValue(), AffectsLayout: true},
	krb.PropRight:     {Default: AutoValue(), AffectsLayout: true},
	krb.PropBottom:    {Default: AutoValue(), AffectsLayout: true},
	krb.PropLeft:      {Default: AutoValue(), AffectsLayout: true},
	krb.PropZIndex:    {Default: IntValue(0)},
	krb.PropOverflow:  {Default: EnumValue(krb.EnumOverflowVisible)},
	krb.PropOverflowX: {Default: EnumValue(krb.EnumOverflowVisible)},
	krb.PropOverflowY: {Default: EnumValue(krb.EnumOverflowVisible)},

	// Display and interaction
	krb.PropVisibility:  {Default: BoolValue(true), AffectsLayout: true},
	krb.PropDisplay:     {Default: EnumValue(0), AffectsLayout: true},
	krb.PropInteractive: {Default: BoolValue(false)},
	krb.PropFocusable:   {Default: BoolValue(false)},
	krb.PropDisabled:    {Default: BoolValue(false)},
	krb.PropCursor:      {Default: EnumValue(0), Inherited: true, AffectsDescendants: true},
	krb.PropTransform:   {Default: TransformValue([6]float32{1, 0, 0, 1, 0, 0})},

	// Content
	krb.PropTextContent: {Default: StringValue(""), AffectsLayout: true},
	krb.PropImageSource: {Default: ResourceValue(0xFFFF), AffectsLayout: true},
	krb.PropPlaceholder: {Default: StringValue("")},
	krb.PropChecked:     {Default: BoolValue(false)},
	krb.PropValue:       {Default: FloatValue(0)},
	krb.PropMinValue:    {Default: FloatValue(0)},
	krb.PropMaxValue:    {Default: FloatValue(100)},
	krb.PropStep:        {Default: FloatValue(1)},

	// App / window level
	krb.PropWindowWidth:  {Default: IntValue(800)},
	krb.PropWindowHeight: {Default: IntValue(600)},
	krb.PropWindowTitle:  {Default: StringValue("Kryon Application")},
	krb.PropResizable:    {Default: BoolValue(true)},
	krb.PropScaleFactor:  {Default: FloatValue(1)},
	krb.PropKeepAspect:   {Default: BoolValue(false)},
	krb.PropIcon:         {Default: ResourceValue(0xFFFF)},
	krb.PropAppVersion:   {Default: StringValue("")},
	krb.PropAppAuthor:    {Default: StringValue("")},
}

// Info returns the registry entry for a known key. Unknown keys report a
// zero entry with a None default.
func Info(key krb.PropertyKey) PropInfo {
	return registry[key]
}

// DefaultValue returns the built-in default for a key.
func DefaultValue(key krb.PropertyKey) Value {
	return registry[key].Default
}

// AllKeys iterates every key in the closed enumeration.
func AllKeys(fn func(key krb.PropertyKey, info PropInfo)) {
	for k, info := range registry {
		fn(k, info)
	}
}
